package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/omopkit/omopload/pkg/omopload"
)

// Fetcher mirrors staging inputs from an S3-compatible object store.
type Fetcher struct {
	client *s3.Client
	cfg    omopload.SourceConfig
	logger omopload.Logger
}

// Compile-time interface check
var _ omopload.SourceFetcher = (*Fetcher)(nil)

// NewFetcher creates a fetcher for the configured bucket. The default
// credentials chain applies unless static keys are configured; Endpoint and
// PathStyle redirect the client at S3-compatible stores such as MinIO.
// Panics if logger is nil.
func NewFetcher(ctx context.Context, cfg omopload.SourceConfig, logger omopload.Logger) (*Fetcher, error) {
	return newFetcher(ctx, cfg, logger, nil)
}

// newFetcher accepts an HTTP client override so tests can fake S3 without
// network access.
func newFetcher(ctx context.Context, cfg omopload.SourceConfig, logger omopload.Logger, httpClient *http.Client) (*Fetcher, error) {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: source bucket is required", omopload.ErrInvalidConfig)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	if httpClient != nil {
		loadOpts = append(loadOpts, config.WithHTTPClient(httpClient))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Fetcher{client: client, cfg: cfg, logger: logger}, nil
}

// Fetch mirrors the vocabulary directory and each dataset directory under
// the configured prefix into stagingPath. An object whose local copy
// already exists is skipped without a transfer, so re-running a partially
// fetched staging area only downloads what is missing.
func (f *Fetcher) Fetch(ctx context.Context, stagingPath string, datasets []string) (omopload.FetchSummary, error) {
	summary := omopload.FetchSummary{}

	dirs := append([]string{"vocab"}, datasets...)
	for _, dir := range dirs {
		prefix := joinKey(f.cfg.Prefix, dir) + "/"
		keys, err := f.listKeys(ctx, prefix)
		if err != nil {
			return summary, fmt.Errorf("listing s3://%s/%s: %w", f.cfg.Bucket, prefix, err)
		}
		f.logger.Verbose("Listed %d objects under s3://%s/%s", len(keys), f.cfg.Bucket, prefix)

		for _, key := range keys {
			relative := strings.TrimPrefix(key, withTrailingSlash(f.cfg.Prefix))
			local := filepath.Join(stagingPath, filepath.FromSlash(relative))

			if alreadyStaged(local) {
				f.logger.Verbose("Skipping %s: already staged", relative)
				summary.Skipped++
				continue
			}

			if err := f.download(ctx, key, local); err != nil {
				return summary, fmt.Errorf("downloading s3://%s/%s: %w", f.cfg.Bucket, key, err)
			}
			f.logger.Info("Fetched %s", relative)
			summary.Downloaded++
		}
	}
	return summary, nil
}

func (f *Fetcher) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := f.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &f.cfg.Bucket,
			Prefix:            &prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, obj := range out.Contents {
			if obj.Key == nil || strings.HasSuffix(*obj.Key, "/") {
				continue
			}
			keys = append(keys, *obj.Key)
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			return keys, nil
		}
		token = out.NextContinuationToken
	}
}

func (f *Fetcher) download(ctx context.Context, key, local string) error {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &f.cfg.Bucket,
		Key:    &key,
	})
	if err != nil {
		return err
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return err
	}

	// Download to a temp name and rename so a partial transfer never looks
	// like a staged file to the presence check.
	tmp := local + ".partial"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, out.Body); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, local)
}

// alreadyStaged reports whether an object's local copy exists, either under
// its own name or with the compression suffix stripped. After extraction the
// archive is gone but its payload is staged; re-downloading the archive would
// undo the extraction on the next run.
func alreadyStaged(local string) bool {
	if _, err := os.Stat(local); err == nil {
		return true
	}
	for _, suffix := range []string{".gz", ".lzo"} {
		if trimmed, ok := strings.CutSuffix(local, suffix); ok {
			if _, err := os.Stat(trimmed); err == nil {
				return true
			}
		}
	}
	return false
}

func joinKey(prefix, dir string) string {
	if prefix == "" {
		return dir
	}
	return path.Join(prefix, dir)
}

func withTrailingSlash(prefix string) string {
	if prefix == "" {
		return ""
	}
	return strings.TrimSuffix(prefix, "/") + "/"
}
