package targets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// Load reads the target list at path. See Parse for the file format.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open target list: %w", err)
	}
	defer f.Close()

	urls, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read target list %s: %w", path, err)
	}
	return urls, nil
}

// Parse returns one URL per line, trimmed, in file order. Blank lines and
// lines starting with '#' are skipped. Duplicates are kept.
func Parse(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}

var (
	ErrUnparsable = errors.New("unparsable url")
	ErrScheme     = errors.New("scheme is not http or https")
	ErrNoHost     = errors.New("url has no host")
)

// CheckURL reports why raw would certainly fail as a probe target. The
// engine still probes such targets; this is for linting target lists.
func CheckURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: %q", ErrScheme, u.Scheme)
	}
	if u.Hostname() == "" {
		return ErrNoHost
	}
	return nil
}

// Duplicates returns every URL listed more than once, in first-seen order.
func Duplicates(urls []string) []string {
	seen := make(map[string]int, len(urls))
	var dups []string
	for _, u := range urls {
		seen[u]++
		if seen[u] == 2 {
			dups = append(dups, u)
		}
	}
	return dups
}
