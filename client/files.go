package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/transform"
	"github.com/spetersoncode/gemkit/transport"
	"github.com/tidwall/gjson"
)

// uploadPath is resolved against the base URL without an API version.
const uploadPath = "upload/v1beta/files"

// Files manages media uploaded to the Gemini API. Vertex AI clients get a
// *gemkit.ConfigError from every method.
type Files struct {
	c *Client
}

// Upload streams size bytes from r into a new file using the resumable
// upload protocol.
func (f *Files) Upload(ctx context.Context, r io.Reader, size int64, mimeType, displayName string, opts ...gemkit.Option) (*gemkit.File, error) {
	done := f.c.track(OpUploadFile, "")
	file, err := f.upload(ctx, r, size, mimeType, displayName, opts)
	done(err, nil)
	return file, err
}

func (f *Files) upload(ctx context.Context, r io.Reader, size int64, mimeType, displayName string, opts []gemkit.Option) (*gemkit.File, error) {
	if err := f.c.requireGeminiAPI(); err != nil {
		return nil, err
	}
	if mimeType == "" {
		return nil, &gemkit.ValueError{Field: "mime type", Msg: "Unknown mime type: Could not determine the mimetype for your file please set the `mime_type` argument"}
	}

	override := callOptions(opts)
	meta := map[string]any{"mimeType": mimeType, "sizeBytes": strconv.FormatInt(size, 10)}
	if displayName != "" {
		meta["displayName"] = displayName
	}
	req, err := f.c.transport.BuildRequest(http.MethodPost, "files", map[string]any{"file": meta}, override)
	if err != nil {
		return nil, err
	}
	effective := gemkit.Patch(f.c.transport.HTTPOptions(), override)
	if req.URL, err = transport.JoinURL(effective.BaseURL, "", uploadPath); err != nil {
		return nil, err
	}
	req.Header.Set(transport.HeaderUploadProtocol, "resumable")
	req.Header.Set(transport.HeaderUploadCommand, "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.FormatInt(size, 10))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)

	resp, err := f.c.transport.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	uploadURL := resp.Header.Get(transport.HeaderUploadURL)
	resp.Close()
	if uploadURL == "" {
		return nil, &gemkit.UploadError{Size: size, Msg: "Failed to create file. Upload URL did not returned from the create file request."}
	}
	f.c.log.WithField("size", size).Debug("upload session started")

	final, err := f.c.transport.UploadChunks(ctx, uploadURL, r, size, override)
	if err != nil {
		return nil, err
	}
	raw, err := final.JSON()
	if err != nil {
		return nil, err
	}
	return decodeFile(raw, "file")
}

// Get fetches file metadata. name may be an id, "files/{id}" or a file URI.
func (f *Files) Get(ctx context.Context, name string, opts ...gemkit.Option) (*gemkit.File, error) {
	done := f.c.track(OpGetFile, "")
	file, err := f.get(ctx, name, opts)
	done(err, nil)
	return file, err
}

func (f *Files) get(ctx context.Context, name string, opts []gemkit.Option) (*gemkit.File, error) {
	if err := f.c.requireGeminiAPI(); err != nil {
		return nil, err
	}
	id, err := transform.FileName(name)
	if err != nil {
		return nil, err
	}
	raw, err := f.c.transport.Request(ctx, http.MethodGet, "files/"+id, nil, callOptions(opts))
	if err != nil {
		return nil, err
	}
	return decodeFile(raw, "")
}

// Download returns the content of a file. file is a name, a URI or a
// *gemkit.File.
func (f *Files) Download(ctx context.Context, file any, opts ...gemkit.Option) ([]byte, error) {
	done := f.c.track(OpDownloadFile, "")
	data, err := f.download(ctx, file, opts)
	done(err, nil)
	return data, err
}

func (f *Files) download(ctx context.Context, file any, opts []gemkit.Option) ([]byte, error) {
	if err := f.c.requireGeminiAPI(); err != nil {
		return nil, err
	}
	var name string
	switch v := file.(type) {
	case string:
		name = v
	case *gemkit.File:
		if v != nil {
			name = v.URI
			if name == "" {
				name = v.Name
			}
		}
	default:
		return nil, &gemkit.ValueError{Field: "file", Value: fmt.Sprintf("%T", file), Msg: "unsupported file reference"}
	}
	id, err := transform.FileName(name)
	if err != nil {
		return nil, err
	}
	return f.c.transport.Download(ctx, "files/"+id+":download?alt=media", callOptions(opts))
}

// Delete removes a file.
func (f *Files) Delete(ctx context.Context, name string, opts ...gemkit.Option) error {
	done := f.c.track(OpDeleteFile, "")
	err := f.delete(ctx, name, opts)
	done(err, nil)
	return err
}

func (f *Files) delete(ctx context.Context, name string, opts []gemkit.Option) error {
	if err := f.c.requireGeminiAPI(); err != nil {
		return err
	}
	id, err := transform.FileName(name)
	if err != nil {
		return err
	}
	_, err = f.c.transport.Request(ctx, http.MethodDelete, "files/"+id, nil, callOptions(opts))
	return err
}

// decodeFile reads a file from raw, optionally nested under key.
func decodeFile(raw json.RawMessage, key string) (*gemkit.File, error) {
	if key != "" {
		r := gjson.GetBytes(raw, key)
		if !r.IsObject() {
			return nil, &gemkit.UploadError{Status: "final", Msg: "finalized upload returned no file"}
		}
		raw = json.RawMessage(r.Raw)
	}
	file := &gemkit.File{}
	if err := json.Unmarshal(raw, file); err != nil {
		return nil, fmt.Errorf("decode file: %w", err)
	}
	return file, nil
}
