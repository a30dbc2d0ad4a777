package results

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWriteReadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "skipped.tsv")

	in := []Skip{
		{Unit: "tumor", Reason: "resolved to zero cells"},
		{Unit: "stroma", Reason: "expression has no cell \"s1_c9\""},
	}

	if err := WriteTSV(path, in); err != nil {
		t.Fatal(err)
	}

	var out []Skip
	if err := ReadTSV(path, &out); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(in, out) {
		t.Errorf("roundtrip:\n%+v\n%+v", in, out)
	}
}

func TestReadGzipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipped.tsv.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte("unit\treason\nalpha\tno cells\n")); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	var out []Skip
	if err := ReadTSV(path, &out); err != nil {
		t.Fatal(err)
	}

	if len(out) != 1 || out[0].Unit != "alpha" || out[0].Reason != "no cells" {
		t.Errorf("rows: %+v", out)
	}
}

func TestWriteEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tsv")

	if err := WriteTSV(path, []Skip{}); err != nil {
		t.Fatal(err)
	}

	var out []Skip
	if err := ReadTSV(path, &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("rows: %+v", out)
	}
}
