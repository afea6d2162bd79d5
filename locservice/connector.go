// Package locservice talks to the remote translation service. The pipeline
// only needs two calls: download the latest translations for a project before
// an import, and upload freshly exported source text afterwards.
package locservice

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/locforge/locforge/locproj"
)

var log = logging.Logger("locservice")

// Connector moves translation files between the local tree and the remote
// service.
type Connector interface {
	// Download fetches the latest translated files for every target culture
	// into the project's destination tree.
	Download(ctx context.Context, remoteName string, info *locproj.ImportExportInfo, baseDir string) error
	// Upload pushes the exported native-culture file to the service.
	Upload(ctx context.Context, remoteName string, info *locproj.ImportExportInfo, baseDir string) error
}

// HTTPConnector is a Connector backed by the service's plain HTTP file API.
type HTTPConnector struct {
	Endpoint string
	APIKey   string
	// ShowProgress draws a progress bar per transfer; disable for unattended
	// runs.
	ShowProgress bool
}

var _ Connector = (*HTTPConnector)(nil)

// fileURL addresses one culture's translation file for a remote project.
func (c *HTTPConnector) fileURL(remoteName, culture, filename string) (string, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", xerrors.Errorf("parsing service endpoint: %w", err)
	}
	u = u.JoinPath("projects", remoteName, "cultures", culture, "files", filename)
	return u.String(), nil
}

// localPath mirrors the tool's output layout: a per-culture subdirectory when
// UseCultureDirectory is set, a flat file otherwise.
func localPath(info *locproj.ImportExportInfo, baseDir, culture string) string {
	dest := filepath.Join(baseDir, info.DestinationPath)
	if info.UseCultureDirectory {
		return filepath.Join(dest, culture, info.PortableObjectName)
	}
	return filepath.Join(dest, info.PortableObjectName)
}

func (c *HTTPConnector) Download(ctx context.Context, remoteName string, info *locproj.ImportExportInfo, baseDir string) error {
	for _, culture := range info.CulturesToGenerate {
		target := localPath(info, baseDir, culture)
		if err := c.downloadFile(ctx, remoteName, culture, info.PortableObjectName, target); err != nil {
			return xerrors.Errorf("downloading %s translations for %s: %w", culture, remoteName, err)
		}
	}
	return nil
}

func (c *HTTPConnector) downloadFile(ctx context.Context, remoteName, culture, filename, target string) error {
	u, err := c.fileURL(remoteName, culture, filename)
	if err != nil {
		return err
	}
	log.Infof("GET %s", u)

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	outf, err := os.OpenFile(target, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer outf.Close() // nolint:errcheck

	fStat, err := outf.Stat()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Close = true
	req.Header.Set("Range", "bytes="+strconv.FormatInt(fStat.Size(), 10)+"-")
	c.auth(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		// Full body; what we had locally is stale.
		if err := outf.Truncate(0); err != nil {
			return err
		}
		if _, err := outf.Seek(0, io.SeekStart); err != nil {
			return err
		}
	case http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		// Already complete.
		return nil
	default:
		return xerrors.Errorf("service returned %s", resp.Status)
	}

	body := resp.Body
	if c.ShowProgress && resp.ContentLength > 0 {
		bar := pb.Full.Start64(resp.ContentLength)
		body = bar.NewProxyReader(resp.Body)
		defer bar.Finish()
	}

	n, err := io.Copy(outf, body)
	if err != nil {
		return err
	}
	log.Infof("downloaded %s (%s)", target, humanize.IBytes(uint64(n)))
	return nil
}

func (c *HTTPConnector) Upload(ctx context.Context, remoteName string, info *locproj.ImportExportInfo, baseDir string) error {
	source := localPath(info, baseDir, info.NativeCulture)
	u, err := c.fileURL(remoteName, info.NativeCulture, info.PortableObjectName)
	if err != nil {
		return err
	}

	f, err := os.Open(source)
	if err != nil {
		return xerrors.Errorf("opening export %s: %w", source, err)
	}
	defer f.Close() // nolint:errcheck

	st, err := f.Stat()
	if err != nil {
		return err
	}

	log.Infof("PUT %s (%s)", u, humanize.IBytes(uint64(st.Size())))

	var body io.Reader = f
	if c.ShowProgress {
		bar := pb.Full.Start64(st.Size())
		body = bar.NewProxyReader(f)
		defer bar.Finish()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, body)
	if err != nil {
		return err
	}
	req.ContentLength = st.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	c.auth(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return xerrors.Errorf("service returned %s", resp.Status)
	}
	return nil
}

func (c *HTTPConnector) auth(req *http.Request) {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
}
