package appointment

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCanTransitionFollowsGraph(t *testing.T) {
	t.Parallel()

	allowed := map[[2]Status]bool{
		{StatusScheduled, StatusConfirmed}:  true,
		{StatusScheduled, StatusCancelled}:  true,
		{StatusScheduled, StatusNoShow}:     true,
		{StatusConfirmed, StatusInProgress}: true,
		{StatusConfirmed, StatusCancelled}:  true,
		{StatusInProgress, StatusCompleted}: true,
		{StatusInProgress, StatusCancelled}: true,
	}

	for _, from := range Statuses {
		for _, to := range Statuses {
			want := allowed[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	t.Parallel()

	terminal := map[Status]bool{
		StatusCompleted: true,
		StatusCancelled: true,
		StatusNoShow:    true,
	}
	for _, s := range Statuses {
		if got := s.Terminal(); got != terminal[s] {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, terminal[s])
		}
	}
}

func TestCheckTransitionRejectsBackwardsMove(t *testing.T) {
	t.Parallel()

	err := checkTransition(StatusCompleted, StatusScheduled)
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	got, err := ParseStatus(" confirmed ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", got)
	}

	if _, err := ParseStatus("ARCHIVED"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestParseSlot(t *testing.T) {
	t.Parallel()

	want := time.Date(2030, 1, 15, 10, 30, 0, 0, time.UTC)

	for _, clock := range []string{"10:30", "10:30:00"} {
		got, err := ParseSlot("2030-01-15", clock)
		if err != nil {
			t.Fatalf("parse %q: %v", clock, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q = %s, want %s", clock, got, want)
		}
	}

	cases := []struct{ date, clock string }{
		{"15/01/2030", "10:30"},
		{"2030-01-15", "10.30"},
		{"2030-02-30", "10:30"},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := ParseSlot(tc.date, tc.clock); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseSlot(%q, %q) err = %v, want ErrInvalidInput", tc.date, tc.clock, err)
		}
	}
}

func TestSlotKeyIdentifiesProviderAndMinute(t *testing.T) {
	t.Parallel()

	provider := uuid.MustParse("6f1c1d3e-2b7a-4c39-9d2b-6a0f0e8c1a11")
	at := time.Date(2030, 1, 15, 10, 30, 0, 0, time.UTC)

	if got, want := SlotKey(provider, at), "slot:6f1c1d3e-2b7a-4c39-9d2b-6a0f0e8c1a11:20300115T1030"; got != want {
		t.Fatalf("slot key = %q, want %q", got, want)
	}
	if SlotKey(provider, at) == SlotKey(uuid.New(), at) {
		t.Fatal("slot keys for different providers collide")
	}
}

func TestAppointmentDateAndTime(t *testing.T) {
	t.Parallel()

	a := &Appointment{StartsAt: time.Date(2030, 3, 4, 9, 5, 0, 0, time.UTC)}
	if a.Date() != "2030-03-04" || a.Time() != "09:05" {
		t.Fatalf("date/time = %s %s", a.Date(), a.Time())
	}
}
