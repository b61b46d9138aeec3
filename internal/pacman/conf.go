package pacman

import (
	"bufio"
	"os"
	"strings"
)

// ParsePacmanConfIgnored reads the IgnorePkg directive(s) from a
// pacman.conf-style file and returns the set of ignored package names.
// Missing files contribute an empty set rather than an error, since a
// system without pacman.conf simply has no system-level ignore list.
func ParsePacmanConfIgnored(path string) (map[string]bool, error) {
	set := make(map[string]bool)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		if !strings.HasPrefix(line, "IgnorePkg") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		for _, name := range strings.Fields(line[eq+1:]) {
			set[name] = true
		}
	}
	return set, sc.Err()
}
