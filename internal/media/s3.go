package media

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type s3Backend struct {
	api    *s3.S3
	bucket string
}

func NewS3Backend(sess *session.Session, bucket string) *s3Backend {
	return &s3Backend{
		api:    s3.New(sess),
		bucket: bucket,
	}
}

func (b *s3Backend) PresignGet(_ context.Context, key string, expires time.Duration) (string, error) {
	req, _ := b.api.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})

	return req.Presign(expires)
}

func (b *s3Backend) PresignPut(_ context.Context, key string, contentType string, expires time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, _ := b.api.PutObjectRequest(input)

	return req.Presign(expires)
}

func (b *s3Backend) Head(ctx context.Context, key string) (ObjectInfo, error) {
	out, err := b.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var awsErr awserr.Error
		if errors.As(err, &awsErr) && (awsErr.Code() == s3.ErrCodeNoSuchKey || awsErr.Code() == "NotFound") {
			return ObjectInfo{}, ErrVideoUnavailable
		}
		return ObjectInfo{}, err
	}

	return ObjectInfo{
		ContentType:   aws.StringValue(out.ContentType),
		ContentLength: aws.Int64Value(out.ContentLength),
		LastModified:  aws.TimeValue(out.LastModified),
		ETag:          strings.Trim(aws.StringValue(out.ETag), `"`),
	}, nil
}

func (b *s3Backend) List(ctx context.Context, prefix string, marker string, maxKeys int) (ListResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(b.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(int64(maxKeys)),
	}
	if marker != "" {
		input.ContinuationToken = aws.String(marker)
	}

	out, err := b.api.ListObjectsV2WithContext(ctx, input)
	if err != nil {
		return ListResult{}, err
	}

	result := ListResult{
		NextMarker: aws.StringValue(out.NextContinuationToken),
		Truncated:  aws.BoolValue(out.IsTruncated),
	}
	for _, obj := range out.Contents {
		result.Objects = append(result.Objects, Object{
			Key:          aws.StringValue(obj.Key),
			Size:         aws.Int64Value(obj.Size),
			LastModified: aws.TimeValue(obj.LastModified),
		})
	}

	return result, nil
}
