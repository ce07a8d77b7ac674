package profile

import "testing"

func TestProfiler_NoMode(t *testing.T) {
	p := Profiler{Path: t.TempDir(), Quiet: true}

	stop := p.Start()
	if _, ok := stop.(ignore); !ok {
		t.Errorf("Start() with empty mode = %T, want ignore", stop)
	}

	stop.Stop()
}

func TestProfiler_UnknownMode(t *testing.T) {
	p := Profiler{Mode: "bogus", Path: t.TempDir(), Quiet: true}

	stop := p.Start()
	if _, ok := stop.(ignore); !ok {
		t.Errorf("Start() with unknown mode = %T, want ignore", stop)
	}

	stop.Stop()
}
