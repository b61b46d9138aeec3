package orchestrator

import "testing"

func TestCommonSuffixLength_Scenarios(t *testing.T) {
	cases := []struct {
		files     []string
		whitelist []string
		want      int
	}{
		{[]string{"a-1.pkg.tar", "b-1.pkg.tar"}, []string{"a"}, 10},
		{[]string{"a-x-1.pkg.tar", "b-x-1.pkg.tar"}, []string{"a-x"}, 10},
		{[]string{"a-x-1.pkg.tar", "b-x-1.pkg.tar"}, []string{"a"}, 12},
	}
	for _, c := range cases {
		wl := make(map[string]bool, len(c.whitelist))
		for _, w := range c.whitelist {
			wl[w] = true
		}
		got := commonSuffixLength(c.files, wl)
		if got != c.want {
			t.Errorf("commonSuffixLength(%v, %v) = %d, want %d", c.files, c.whitelist, got, c.want)
		}
	}
}

func TestCommonSuffixLength_NoMatch(t *testing.T) {
	got := commonSuffixLength([]string{"a-1.pkg.tar"}, map[string]bool{"zzz": true})
	if got != -1 {
		t.Errorf("got %d, want -1", got)
	}
}
