// Package lang implements FL, a line-oriented language of typed variable
// declarations, and an engine that edits values in place in the source files
// that declare them.
//
// # Syntax
//
//	// single-line comment
//	# single-line comment
//	/* multi-line
//	   comment */
//	(import) shared.net          // shared/net.fl beside this file
//	const limit(int) = 10
//	host(str) = "localhost"
//	port(int) = 8000 + 80
//	ratio(float) = $port / limit
//	tags(list) = [web, 2, 3.5, true, $host]
//	pair(tuple) = (a, 1)
//	ids(set) = {1, 2, 2}
//	server(dict) = {
//	    name(key): name(str) = "api",
//	    port(key): port(int) = $port
//	}
//	busy(bool) = $port > $limit
//
// A declaration is name(type) = value. The value of a dict may span several
// lines; a declaration ends on the line where its braces balance.
//
// # Evaluation
//
// A value that is exactly one reference ($name or $dict.key) takes the
// referenced value, which must have the declared type; an int widens to a
// float. $a op $b with op one of < > = is a comparison and yields a bool. An
// int or float value that is not a plain literal is evaluated as arithmetic
// over + - * / % and parentheses, with references and constant names as
// operands; results are rounded to five decimal places. Everything else is a
// literal of the declared type.
//
// Inside list, set and tuple literals elements are classified individually:
// references, nested literals, numbers and true/false keep their type and any
// other element is a string, quoted or not.
//
// # Namespace
//
// A [Parser] holds one flat namespace shared by a root file and all of its
// imports. Later declarations of a name replace earlier ones; declaring a name
// again with a different type is an error. Constants have no such check.
//
// # Mutation
//
// While parsing, the Parser records the lines of each declaration. The
// mutation methods use these sites to rewrite source text:
// [Parser.CreateVar] appends to the current file, [Parser.RemoveVar] deletes
// from it, and [Parser.EditVarValue] rewrites the declarations of the name in
// the current file and every file it imports, directly or not. A file whose
// content changed since it was parsed is not rewritten.
package lang
