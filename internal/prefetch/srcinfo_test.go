package prefetch

import "testing"

func TestParseSrcinfo_ExtractsArchAndSourceArrays(t *testing.T) {
	data := []byte(`pkgbase = example
	pkgver = 1.2.3
	pkgrel = 1
	arch = x86_64
	arch = aarch64
	source = https://example.com/example-1.2.3.tar.gz
	sha256sums = abcd1234
	source_x86_64 = https://example.com/extra-x86_64.tar.gz
	sha256sums_x86_64 = deadbeef

pkgname = example
`)
	info := parseSrcinfo(data)

	if len(info.arch) != 2 || info.arch[0] != "x86_64" || info.arch[1] != "aarch64" {
		t.Fatalf("arch = %v", info.arch)
	}
	if got := info.arrays["source"]; len(got) != 1 || got[0] != "https://example.com/example-1.2.3.tar.gz" {
		t.Fatalf("source = %v", got)
	}
	if got := info.arrays["sha256sums"]; len(got) != 1 || got[0] != "abcd1234" {
		t.Fatalf("sha256sums = %v", got)
	}
	if got := info.arrays["source_x86_64"]; len(got) != 1 || got[0] != "https://example.com/extra-x86_64.tar.gz" {
		t.Fatalf("source_x86_64 = %v", got)
	}
	if got := info.arrays["sha256sums_x86_64"]; len(got) != 1 || got[0] != "deadbeef" {
		t.Fatalf("sha256sums_x86_64 = %v", got)
	}

	wantOrder := []string{"source", "sha256sums", "source_x86_64", "sha256sums_x86_64"}
	if len(info.order) != len(wantOrder) {
		t.Fatalf("order = %v", info.order)
	}
	for i, k := range wantOrder {
		if info.order[i] != k {
			t.Fatalf("order[%d] = %q, want %q", i, info.order[i], k)
		}
	}
}

func TestIsSourceKey(t *testing.T) {
	yes := []string{"source", "source_x86_64", "sha256sums", "sha256sums_aarch64", "md5sums", "b2sums_any"}
	no := []string{"pkgname", "depends", "depends_x86_64", "url", "pkgver"}
	for _, k := range yes {
		if !isSourceKey(k) {
			t.Errorf("isSourceKey(%q) = false, want true", k)
		}
	}
	for _, k := range no {
		if isSourceKey(k) {
			t.Errorf("isSourceKey(%q) = true, want false", k)
		}
	}
}
