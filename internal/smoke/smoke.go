// Package smoke drives a running task list server through a fixed
// create/list/delete scenario and reports each response.
package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Step is one request of the scenario and what came back.
type Step struct {
	Name       string
	Method     string
	Path       string
	WantStatus int
	Status     int
	Body       json.RawMessage
}

// OK reports whether the step returned the expected status.
func (s Step) OK() bool { return s.Status == s.WantStatus }

// Runner talks to one server of the detailed ("task") layout.
type Runner struct {
	Client  *http.Client
	BaseURL string // e.g. http://localhost:8000
	Path    string // collection path, e.g. /tasks
	Out     io.Writer
}

// Run executes the scenario. It stops early only on transport errors; a
// wrong status is recorded and reported through the returned error.
func (r *Runner) Run(ctx context.Context) ([]Step, error) {
	var steps []Step
	do := func(name, method, path string, body any, want int) (Step, error) {
		st, err := r.request(ctx, name, method, path, body, want)
		if err != nil {
			return st, err
		}
		steps = append(steps, st)
		r.print(st)
		return st, nil
	}

	if _, err := do("GET (initial)", "GET", r.Path, nil, 200); err != nil {
		return steps, err
	}
	if _, err := do("POST", "POST", r.Path, map[string]any{
		"title":       "Buy groceries",
		"description": "Milk, bread, eggs, and fruits",
		"completed":   false,
	}, 201); err != nil {
		return steps, err
	}
	if _, err := do("POST (another task)", "POST", r.Path, map[string]any{
		"title":       "Walk the dog",
		"description": "Take Max for a walk in the park",
		"completed":   true,
	}, 201); err != nil {
		return steps, err
	}
	listed, err := do("GET (after adding tasks)", "GET", r.Path, nil, 200)
	if err != nil {
		return steps, err
	}

	var list struct {
		Tasks []struct {
			ID int `json:"id"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal(listed.Body, &list); err != nil {
		return steps, fmt.Errorf("decode task list: %w", err)
	}
	if len(list.Tasks) > 0 {
		path := fmt.Sprintf("%s/%d", r.Path, list.Tasks[0].ID)
		if _, err := do("DELETE (first task)", "DELETE", path, nil, 200); err != nil {
			return steps, err
		}
	}
	if _, err := do("GET (after deletion)", "GET", r.Path, nil, 200); err != nil {
		return steps, err
	}
	if _, err := do("DELETE non-existent task", "DELETE", r.Path+"/9999", nil, 404); err != nil {
		return steps, err
	}
	if _, err := do("POST without title", "POST", r.Path, map[string]any{
		"description": "This should fail",
	}, 400); err != nil {
		return steps, err
	}

	var failed []string
	for _, st := range steps {
		if !st.OK() {
			failed = append(failed, fmt.Sprintf("%s: got %d, want %d", st.Name, st.Status, st.WantStatus))
		}
	}
	if len(failed) > 0 {
		return steps, errors.New("unexpected status: " + strings.Join(failed, "; "))
	}
	return steps, nil
}

func (r *Runner) request(ctx context.Context, name, method, path string, body any, want int) (Step, error) {
	st := Step{Name: name, Method: method, Path: path, WantStatus: want}

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return st, fmt.Errorf("%s: marshal body: %w", name, err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(r.BaseURL, "/")+path, rd)
	if err != nil {
		return st, fmt.Errorf("%s: %w", name, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client().Do(req)
	if err != nil {
		return st, fmt.Errorf("%s: %w", name, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return st, fmt.Errorf("%s: read body: %w", name, err)
	}
	st.Status = resp.StatusCode
	st.Body = json.RawMessage(raw)
	return st, nil
}

func (r *Runner) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (r *Runner) print(st Step) {
	if r.Out == nil {
		return
	}
	fmt.Fprintf(r.Out, "\n--- Testing %s %s (%s) ---\n", st.Method, st.Path, st.Name)
	fmt.Fprintf(r.Out, "Status Code: %d\n", st.Status)
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, st.Body, "", "  "); err == nil {
		fmt.Fprintf(r.Out, "Response: %s\n", pretty.String())
	} else {
		fmt.Fprintf(r.Out, "Response: %s\n", strings.TrimSpace(string(st.Body)))
	}
}

// WaitHealthy polls url until it answers 200 or ctx is done.
func WaitHealthy(ctx context.Context, client *http.Client, url string) error {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", url, ctx.Err())
		case <-ticker.C:
		}
	}
}
