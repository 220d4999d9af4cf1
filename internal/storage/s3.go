package storage

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"storecast/internal/config"
)

type S3Provider struct {
	api    *s3.S3
	bucket string
	urlTTL time.Duration
}

func NewS3Provider(cfg *config.Config) *S3Provider {
	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.Storage.KeyID, cfg.Storage.AppKey, ""),
		Endpoint:         aws.String(cfg.Storage.Endpoint),
		Region:           aws.String(cfg.Storage.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	sess := session.Must(session.NewSession(s3Config))
	return &S3Provider{
		api:    s3.New(sess),
		bucket: cfg.Storage.Bucket,
		urlTTL: time.Duration(cfg.Storage.URLTTLSeconds) * time.Second,
	}
}

// URL presigns a GET for the key. Signing is pure local math, safe on
// the manifest path.
func (s *S3Provider) URL(key string) (string, error) {
	req, _ := s.api.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return req.Presign(s.urlTTL)
}

func (s *S3Provider) Put(key string, body io.ReadSeeker, contentType string) error {
	_, err := s.api.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	return err
}

func (s *S3Provider) Exists(key string) (bool, error) {
	_, err := s.api.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isNotFound picks missing-key responses out of HeadObject errors.
// Anything else (auth, network, throttling) must surface to the
// caller, not read as "absent".
func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode() == http.StatusNotFound
	}
	return false
}
