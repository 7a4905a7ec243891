package foxit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/httputil"
	"github.com/matzehuels/storyboard/pkg/integrations"
)

const service = "foxit"

// DefaultBaseURL is the Foxit PDF Services API root.
const DefaultBaseURL = "https://na1.fusion.foxit.com/pdf-services/api"

// Task is a started conversion.
type Task struct {
	DocumentID string `json:"documentId"`
	TaskID     string `json:"taskId"`
}

// TaskStatus reports the progress of a conversion.
type TaskStatus struct {
	TaskID           string `json:"taskId"`
	Status           string `json:"status"`
	Progress         int    `json:"progress"`
	ResultDocumentID string `json:"resultDocumentId,omitempty"`
}

// Done reports whether the conversion finished, successfully or not.
func (s *TaskStatus) Done() bool {
	switch strings.ToUpper(s.Status) {
	case "COMPLETED", "FAILED":
		return true
	}
	return false
}

// Client uploads HTML reports and converts them to PDF.
// Conversions are never cached.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	id      string
	secret  string
}

// NewClient creates a client authenticating with the given credentials.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		Client:  integrations.NewClient(nil, service, 0, nil),
		baseURL: DefaultBaseURL,
		id:      clientID,
		secret:  clientSecret,
	}
}

// WithBaseURL points the client at another host. Used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// Configured reports whether both credentials are present.
func (c *Client) Configured() bool {
	return integrations.HasKey(c.id) && integrations.HasKey(c.secret)
}

func (c *Client) auth() map[string]string {
	return map[string]string{"client_id": c.id, "client_secret": c.secret}
}

// Convert uploads document as report.html and starts an HTML to PDF
// conversion.
func (c *Client) Convert(ctx context.Context, document []byte) (*Task, error) {
	if !c.Configured() {
		return nil, integrations.ErrNoCredentials(service)
	}

	var task Task
	err := httputil.RetryWithBackoff(ctx, func() error {
		id, err := c.upload(ctx, document)
		if err != nil {
			return err
		}
		task = Task{DocumentID: id}
		return c.PostJSON(ctx, c.baseURL+"/documents/create/pdf-from-html", c.auth(),
			map[string]string{"documentId": id}, &task)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) upload(ctx context.Context, document []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "report.html")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "%s: build upload", service)
	}
	if _, err := part.Write(document); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "%s: build upload", service)
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "%s: build upload", service)
	}

	headers := c.auth()
	headers["Content-Type"] = w.FormDataContentType()
	resp, err := c.Do(ctx, http.MethodPost, c.baseURL+"/documents/upload", &body, headers)
	if err != nil {
		return "", err
	}
	defer resp.Close()

	var out struct {
		DocumentID string `json:"documentId"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return "", err
	}
	if out.DocumentID == "" {
		return "", errors.New(errors.ErrCodeInvalidFormat, "%s: upload returned no documentId", service)
	}
	return out.DocumentID, nil
}

// Status fetches the progress of a conversion task.
func (c *Client) Status(ctx context.Context, taskID string) (*TaskStatus, error) {
	if taskID == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: empty task id", service)
	}
	var st TaskStatus
	err := httputil.RetryWithBackoff(ctx, func() error {
		return c.Get(ctx, fmt.Sprintf("%s/tasks/%s", c.baseURL, integrations.PathEncode(taskID)), c.auth(), &st)
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ReportHTML wraps the concatenated node text in the report page. The text
// is escaped and kept preformatted.
func ReportHTML(title, body string) []byte {
	if title == "" {
		title = "StoryBoard Report"
	}
	t := html.EscapeString(title)
	return []byte("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>" + t +
		"</title></head><body><h1>" + t + "</h1><hr><h2>Nodes:</h2><pre>" +
		html.EscapeString(body) + "</pre></body></html>")
}

// MockStatus is the status text reported when conversion is unavailable.
const MockStatus = "PDF report task created (offline)"

func decodeJSON(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s: decode response", service)
	}
	return nil
}
