package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/BruksfildServices01/client-portal/internal/domain/document"
)

type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Documents finds onboarding documents stored as
// clients/<id>/<document-name>[.ext] in a bucket.
type S3Documents struct {
	client *s3.Client
	bucket string
}

func NewS3Documents(cfg S3Config) *S3Documents {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: cfg.Endpoint != "",
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &S3Documents{
		client: s3.New(opts),
		bucket: cfg.Bucket,
	}
}

func clientPrefix(clientID uint) string {
	return fmt.Sprintf("clients/%d/", clientID)
}

func (s *S3Documents) Missing(ctx context.Context, clientID uint, required []string) ([]string, error) {
	present := make(map[string]bool)

	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(clientPrefix(clientID)),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list documents for client %d: %w", clientID, err)
		}
		for _, obj := range page.Contents {
			present[documentName(aws.ToString(obj.Key))] = true
		}
	}

	return missingFrom(present, required), nil
}

// documentName strips the client prefix and extension from an object key.
func documentName(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}

func missingFrom(present map[string]bool, required []string) []string {
	var missing []string
	for _, name := range required {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

var _ document.Store = (*S3Documents)(nil)
