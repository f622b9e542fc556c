package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spetersoncode/gemkit"
)

// ChunkSize is the block size of a resumable upload.
const ChunkSize = 8 * 1024 * 1024

// Resumable upload protocol headers.
const (
	HeaderUploadCommand  = "X-Goog-Upload-Command"
	HeaderUploadOffset   = "X-Goog-Upload-Offset"
	HeaderUploadStatus   = "X-Goog-Upload-Status"
	HeaderUploadURL      = "X-Goog-Upload-Url"
	HeaderUploadProtocol = "X-Goog-Upload-Protocol"
)

// Upload session states reported in X-Goog-Upload-Status.
const (
	uploadActive = "active"
	uploadFinal  = "final"
)

// UploadChunks streams size bytes from r to an upload session URL in
// ChunkSize blocks. The block that reaches size carries the finalize command.
// It returns the response to the finalizing block, unconsumed.
func (c *Client) UploadChunks(ctx context.Context, uploadURL string, r io.Reader, size int64, override gemkit.HTTPOptions) (*Response, error) {
	opts := gemkit.Patch(c.opts, override)
	buf := make([]byte, ChunkSize)

	var (
		offset int64
		status string
		resp   *Response
	)
	for {
		n, err := io.ReadFull(r, buf)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, err
		}
		if n == 0 && offset < size {
			return nil, &gemkit.UploadError{Status: status, Offset: offset, Size: size, Msg: "source ended before the declared size"}
		}

		command := "upload"
		if offset+int64(n) >= size {
			command += ", finalize"
		}
		header := opts.Headers.Clone()
		if header == nil {
			header = http.Header{}
		}
		header.Set(HeaderUploadCommand, command)
		header.Set(HeaderUploadOffset, strconv.FormatInt(offset, 10))
		header.Set("Content-Length", strconv.Itoa(n))

		if resp != nil {
			resp.Close()
		}
		resp, err = c.Send(ctx, &Request{
			Method:  http.MethodPost,
			URL:     uploadURL,
			Header:  header,
			Body:    append([]byte(nil), buf[:n]...),
			Timeout: opts.Timeout,
		})
		if err != nil {
			return nil, err
		}
		offset += int64(n)
		status = resp.Header.Get(HeaderUploadStatus)
		c.log.WithFields(logrus.Fields{"offset": offset, "size": size, "status": status}).Debug("upload chunk sent")

		if status != uploadActive {
			break
		}
		if size <= offset {
			resp.Close()
			return nil, &gemkit.UploadError{Status: status, Offset: offset, Size: size, Msg: "All content has been uploaded, but the upload status is not finalized."}
		}
	}

	if status != uploadFinal {
		resp.Close()
		return nil, &gemkit.UploadError{Status: status, Offset: offset, Size: size, Msg: "Failed to upload file: Upload status is not finalized."}
	}
	return resp, nil
}
