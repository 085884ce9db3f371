package seed

import (
	"testing"

	"github.com/sandeepkv93/account-onboarding-service/internal/database"
)

func TestDescribeReport(t *testing.T) {
	report := &database.SeedReport{
		Created:  []string{"IND200000001"},
		Existing: []string{"BSN200000002"},
	}
	got := describeReport(report, true)
	if len(got) != 3 {
		t.Fatalf("unexpected details: %v", got)
	}
	if got[0] != "would create: IND200000001" || got[1] != "already present: BSN200000002" {
		t.Fatalf("unexpected details: %v", got)
	}

	noop := describeReport(&database.SeedReport{Existing: []string{"IND200000001"}, Noop: true}, false)
	if noop[len(noop)-1] != "nothing to do" {
		t.Fatalf("expected noop line, got %v", noop)
	}
}
