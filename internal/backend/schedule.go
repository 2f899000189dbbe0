package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/maheshrc27/postpilot/internal/models"
)

const defaultScheduleError = "Failed to schedule post"

// ScheduleRequest is the multipart payload accepted by the schedule endpoint.
type ScheduleRequest struct {
	MediaType     string
	Caption       string
	ScheduledTime string
	Timezone      string
	Media         *models.MediaFile
}

// SchedulePost submits r and returns the backend's JSON answer.
func (c *Client) SchedulePost(ctx context.Context, r ScheduleRequest) (json.RawMessage, error) {
	body, contentType, err := encodeScheduleForm(r)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, EndpointSchedulePost, body, contentType)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(EndpointSchedulePost, resp.status, resp.body, defaultScheduleError)
	}

	var result json.RawMessage
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, malformed(EndpointSchedulePost, err)
	}
	return result, nil
}

func encodeScheduleForm(r ScheduleRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"media_type", r.MediaType},
		{"caption", r.Caption},
		{"scheduled_time", r.ScheduledTime},
		{"timezone", r.Timezone},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("error writing field %s: %w", f[0], err)
		}
	}

	if r.Media != nil && len(r.Media.Data) > 0 {
		if err := writeMedia(w, r.Media); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("error closing form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeMedia(w *multipart.Writer, media *models.MediaFile) error {
	kind, _ := filetype.Match(media.Data)
	mimeType := "application/octet-stream"
	if kind != types.Unknown {
		mimeType = kind.MIME.Value
	}

	name := media.Name
	if name == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("error generating file name: %w", err)
		}
		name = id
		if kind != types.Unknown {
			name += "." + kind.Extension
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename="%s"`, quoteEscaper.Replace(name)))
	h.Set("Content-Type", mimeType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("error creating media part: %w", err)
	}
	if _, err := part.Write(media.Data); err != nil {
		return fmt.Errorf("error writing media: %w", err)
	}
	return nil
}
