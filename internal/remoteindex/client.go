// Package remoteindex implements the Remote Index Client (§4.3):
// batched info and search queries against the remote recipe index's
// JSON RPC protocol (v=5&type=info&arg[]=...).
package remoteindex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rua-build/rua/internal/config"
	"github.com/rua-build/rua/internal/httputil"
	"github.com/rua-build/rua/internal/rerr"
)

// BatchSize is the maximum number of names per info() request (§4.3, §8).
const BatchSize = config.InfoBatchSize

// Package is one remote package record, carrying at minimum the fields
// the resolver and upgrade planner need.
type Package struct {
	Name           string   `json:"Name"`
	PackageBase    string   `json:"PackageBase"`
	Version        string   `json:"Version"`
	Description    string   `json:"Description"`
	Depends        []string `json:"Depends"`
	MakeDepends    []string `json:"MakeDepends"`
	CheckDepends   []string `json:"CheckDepends"`
	FirstSubmitted int64    `json:"FirstSubmitted"`
	LastModified   int64    `json:"LastModified"`
}

type rpcResponse struct {
	Results []Package `json:"results"`
}

// Client queries the remote index over HTTPS.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client pointed at baseURL, using a hardened HTTP client
// (SSRF protection, disabled compression, bounded redirects) built the
// same way the rest of this module's outbound HTTP clients are.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: httputil.NewSecureClient(httputil.ClientOptions{
			Timeout: config.APITimeout(),
		}),
	}
}

// Info fetches package records for the given names, batching requests
// at BatchSize names per call (§4.3, §8 batching invariant). Names
// absent from the remote index are simply absent from the result; that
// is not an error.
func (c *Client) Info(ctx context.Context, names []string) ([]Package, error) {
	var all []Package
	for i := 0; i < len(names); i += BatchSize {
		end := i + BatchSize
		if end > len(names) {
			end = len(names)
		}
		chunk := names[i:end]
		if len(chunk) == 0 {
			continue
		}
		pkgs, err := c.doRequest(ctx, buildInfoURL(c.baseURL, chunk))
		if err != nil {
			return nil, err
		}
		all = append(all, pkgs...)
	}
	return all, nil
}

// Search queries the remote index by name and description.
func (c *Client) Search(ctx context.Context, query string) ([]Package, error) {
	return c.doRequest(ctx, buildSearchURL(c.baseURL, query))
}

func (c *Client) doRequest(ctx context.Context, reqURL string) ([]Package, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, rerr.Wrap(rerr.RemoteError, reqURL, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, rerr.Wrap(rerr.RemoteError, reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, rerr.New(rerr.RemoteError, "remote index returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, rerr.Wrap(rerr.RemoteError, reqURL, err)
	}

	var parsed rpcResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, rerr.Wrap(rerr.RemoteError, reqURL, fmt.Errorf("decoding response: %w", err))
	}
	return parsed.Results, nil
}

func buildInfoURL(base string, names []string) string {
	q := url.Values{}
	q.Set("v", "5")
	q.Set("type", "info")
	for _, n := range names {
		q.Add("arg[]", n)
	}
	return base + "?" + q.Encode()
}

func buildSearchURL(base, query string) string {
	q := url.Values{}
	q.Set("v", "5")
	q.Set("type", "search")
	q.Set("by", "name-desc")
	q.Set("arg", strings.TrimSpace(query))
	return base + "?" + q.Encode()
}
