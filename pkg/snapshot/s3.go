package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Store stores snapshots in an S3 bucket under a key prefix.
//
// Example usage:
//
//	client := snapshot.NewS3Client("us-east-1")
//	store := snapshot.NewS3Store(client, "my-bucket", "fibers/")
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Store creates a new S3 snapshot store.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// NewS3Client builds an S3 client for region using credentials from the
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN variables.
func NewS3Client(region string) *s3.Client {
	return s3.New(s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	})
}

func envCredentials(context.Context) (aws.Credentials, error) {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, errors.New("snapshot: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}, nil
}

func (s *S3Store) key(name string) string {
	return s.prefix + name + ext
}

// Put uploads the snapshot as <prefix><name>.json.
func (s *S3Store) Put(ctx context.Context, snap *Snapshot) error {
	if err := validName(snap.Name); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := snap.Encode(&buf); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(snap.Name)),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"snapshot-nodes": fmt.Sprint(snap.Nodes),
			"snapshot-taken": snap.Taken.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("snapshot: s3 put failed: %w", err)
	}
	return nil
}

// Get downloads a snapshot.
func (s *S3Store) Get(ctx context.Context, name string) (*Snapshot, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("snapshot: s3 get failed: %w", err)
	}
	defer out.Body.Close()
	return Decode(out.Body)
}

// List pages through the prefix and returns snapshot names.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("snapshot: s3 list failed: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			name := strings.TrimPrefix(*obj.Key, s.prefix)
			if name, ok := strings.CutSuffix(name, ext); ok && !strings.Contains(name, "/") {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names, nil
}

var _ Store = (*S3Store)(nil)
