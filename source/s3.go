package source

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rafalgolarz/srcache"
)

// S3 returns a compute function that fetches an object and yields its
// body as []byte. Useful for config or reference data published to a
// bucket and read far more often than it changes.
func S3(client *s3.Client, bucket, key string, timeout time.Duration) srcache.ComputeFunc {
	timeout = orDefault(timeout)
	return func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("source: s3 get s3://%s/%s: %w", bucket, key, err)
		}
		defer out.Body.Close()

		body, err := io.ReadAll(out.Body)
		if err != nil {
			return nil, fmt.Errorf("source: s3 read s3://%s/%s: %w", bucket, key, err)
		}
		return body, nil
	}
}
