package appcore

import (
	"reflect"
	"testing"

	"kite/internal/coord"
)

func TestFailedFiles(t *testing.T) {
	reps := []coord.Report{
		{Rank: 1, File: "z.fq", Err: "input i/o"},
		{Rank: 0, File: "a.fq"},
		{Rank: 0, File: "b.fq", Err: "chunk extraction panicked"},
	}
	got := failedFiles(reps)
	if want := []string{"b.fq", "z.fq"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if got := failedFiles(nil); len(got) != 0 {
		t.Fatalf("no reports: got %v", got)
	}
}
