package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/progress"
)

const mib = 1024 * 1024

// Download streams url into dest in ChunkSize reads. After each chunk it
// emits a SubProgress ratio (clamped to 1.0) when the length is known and a
// Progress line with megabyte counts. Cancellation is checked between
// chunks; a partial file is left in place.
func (in *Installer) Download(ctx context.Context, url, dest string, emit progress.Emitter) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Wrapf(err, errs.CodeExecution, "create request for %s", url)
	}
	if in.UserAgent != "" {
		req.Header.Set("User-Agent", in.UserAgent)
	}

	client := in.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errs.Cancelled(ctx.Err())
		}
		return errs.Wrapf(err, errs.CodeExecution, "failed to download from %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.Newf(errs.CodeExecution, "failed to download from %s: unexpected status %s", url, resp.Status)
	}

	file, err := os.Create(dest)
	if err != nil {
		return errs.Wrapf(err, errs.CodeExecution, "failed to create destination %s", dest)
	}
	defer file.Close()

	size := in.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	buf := make([]byte, size)
	total := resp.ContentLength
	start := time.Now()
	var downloaded int64

	for {
		if err := ctx.Err(); err != nil {
			return errs.Cancelled(err)
		}
		n, readErr := readChunk(resp.Body, buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return errs.Wrapf(err, errs.CodeExecution, "failed to write to %s", dest)
			}
			downloaded += int64(n)
			emitDownloadProgress(emit, downloaded, total, time.Since(start))
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return errs.Cancelled(ctx.Err())
			}
			return errs.Wrapf(readErr, errs.CodeExecution, "failed to read from %s", url)
		}
	}

	if total > 0 && downloaded != total {
		return errs.Newf(errs.CodeExecution, "incomplete download from %s: got %d of %d bytes", url, downloaded, total)
	}
	if err := file.Close(); err != nil {
		return errs.Wrapf(err, errs.CodeExecution, "failed to close %s", dest)
	}
	return nil
}

// readChunk fills buf from r. Unlike io.ReadFull it returns the reader's
// error unchanged, so a short body (io.ErrUnexpectedEOF) stays distinct from
// a clean end of stream.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func emitDownloadProgress(emit progress.Emitter, downloaded, total int64, elapsed time.Duration) {
	speed := ""
	if secs := elapsed.Seconds(); secs > 0 {
		speed = fmt.Sprintf("%.1f MB/s", float64(downloaded)/mib/secs)
	}
	if total > 0 {
		ratio := min(float64(downloaded)/float64(total), 1.0)
		emit.Emit(progress.SubProgress{Ratio: ratio})
		emit.Emit(progress.Progress{
			Phase: fmt.Sprintf("Downloading (%.1f/%.1f MB)", float64(downloaded)/mib, float64(total)/mib),
			Speed: speed,
		})
		return
	}
	emit.Emit(progress.Progress{
		Phase: fmt.Sprintf("Downloading (%.1f MB)", float64(downloaded)/mib),
		Speed: speed,
	})
}
