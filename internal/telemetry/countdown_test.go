package telemetry

import "testing"

func TestCountdownSeedAndTick(t *testing.T) {
	var cd Countdown

	cd.Seed(5)
	cd.Tick()
	cd.Tick()
	cd.Tick()

	if got := cd.Remaining(); got != 2 {
		t.Errorf("Remaining() = %d, want 2", got)
	}
	if cd.Expired() {
		t.Error("Expired() = true, want false")
	}
}

func TestCountdownFloorsAtZero(t *testing.T) {
	var cd Countdown

	cd.Seed(2)
	for i := 0; i < 10; i++ {
		cd.Tick()
	}

	if got := cd.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
	if !cd.Expired() {
		t.Error("Expired() = false, want true")
	}
	if got := cd.Display(); got != "Expired" {
		t.Errorf("Display() = %q, want %q", got, "Expired")
	}
}

func TestCountdownReseedDiscardsLocalValue(t *testing.T) {
	var cd Countdown

	cd.Seed(100)
	cd.Tick()
	cd.Tick()

	// Authoritative poll reports more time than the local countdown;
	// the poll wins.
	cd.Seed(300)
	if got := cd.Remaining(); got != 300 {
		t.Errorf("Remaining() after larger re-seed = %d, want 300", got)
	}

	// And a smaller value wins too.
	cd.Seed(10)
	if got := cd.Remaining(); got != 10 {
		t.Errorf("Remaining() after smaller re-seed = %d, want 10", got)
	}
}

func TestCountdownReseedRevivesExpired(t *testing.T) {
	var cd Countdown

	cd.Seed(1)
	cd.Tick()
	if !cd.Expired() {
		t.Fatal("Expired() = false, want true")
	}

	cd.Seed(60)
	if cd.Expired() {
		t.Error("Expired() = true after re-seed, want false")
	}
	if got := cd.Display(); got != "1m" {
		t.Errorf("Display() = %q, want %q", got, "1m")
	}
}

func TestCountdownNegativeSeedClamps(t *testing.T) {
	var cd Countdown

	cd.Seed(-30)
	if got := cd.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
	if !cd.Expired() {
		t.Error("Expired() = false, want true")
	}
}

func TestCountdownUnseededDisplay(t *testing.T) {
	var cd Countdown

	if got := cd.Display(); got != "0h 0m" {
		t.Errorf("Display() = %q, want %q", got, "0h 0m")
	}
	if cd.Expired() {
		t.Error("Expired() = true for unseeded countdown, want false")
	}
}
