package yahoo

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"
)

// Yahoo throttles the default Go user agent.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) Gecko/20100101 Firefox/126.0"

// historyCache caches chart responses on disk. The cache key includes the
// current day, so entries silently expire overnight and a fresh series is
// pulled on the first request of each session.
type historyCache struct {
	base http.RoundTripper
}

func (c *historyCache) RoundTrip(req *http.Request) (*http.Response, error) {
	key := fmt.Sprintf("%s %s %s", time.Now().Format("2006-01-02"), req.Method, req.URL.String())
	file := filepath.Join(os.TempDir(), fmt.Sprintf("stash-%x", sha1.Sum([]byte(key))))

	if content, err := os.ReadFile(file); err == nil {
		if resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req); err == nil {
			return resp, nil
		}
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}

	content, err := httputil.DumpResponse(resp, true)
	if err == nil {
		err = os.WriteFile(file, content, 0600)
	}
	if err != nil {
		log.Printf("chart cache write err (ignored): %v", err)
	}
	return resp, nil
}

// dailyClient returns a client whose responses expire at midnight.
func dailyClient() *http.Client {
	return &http.Client{Transport: &historyCache{http.DefaultTransport}}
}

// jwget performs an HTTP GET and unmarshals the JSON response into data.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}
