package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"familyquest/config"
	"familyquest/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrBadImage is returned for image payloads that are not base64 data URLs.
var ErrBadImage = errors.New("image must be a base64 data URL")

// getR2Config returns AWS config for Cloudflare R2 (S3-compatible)
func getR2Config(ctx context.Context) (aws.Config, error) {
	accessKey := os.Getenv("R2_ACCESS_KEY_ID")
	secretKey := os.Getenv("R2_SECRET_ACCESS_KEY")
	if os.Getenv("R2_ACCOUNT_ID") == "" || accessKey == "" || secretKey == "" {
		return aws.Config{}, fmt.Errorf("R2_ACCOUNT_ID, R2_ACCESS_KEY_ID or R2_SECRET_ACCESS_KEY is not set")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"), // Required by SDK, R2 ignores this
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load R2 config: %w", err)
	}
	return cfg, nil
}

// getR2Client returns S3 client configured for Cloudflare R2
func getR2Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := getR2Config(ctx)
	if err != nil {
		return nil, err
	}
	endpoint := config.Getenv("R2_ENDPOINT", fmt.Sprintf("https://%s.r2.cloudflarestorage.com", os.Getenv("R2_ACCOUNT_ID")))
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}), nil
}

func getR2Bucket() (string, error) {
	bucket := os.Getenv("R2_BUCKET_NAME")
	if bucket == "" {
		return "", fmt.Errorf("R2_BUCKET_NAME is not set")
	}
	return bucket, nil
}

// UploadToS3 uploads an object to Cloudflare R2 (S3-compatible)
func UploadToS3(ctx context.Context, objectName string, file io.Reader, contentType string) error {
	bucket, err := getR2Bucket()
	if err != nil {
		return err
	}
	client, err := getR2Client(ctx)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(objectName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(objectName),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("R2 upload failed: %w", err)
	}
	return nil
}

// GenerateSignedURL returns a presigned GET URL for the given object
func GenerateSignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	bucket, err := getR2Bucket()
	if err != nil {
		return "", err
	}
	client, err := getR2Client(ctx)
	if err != nil {
		return "", err
	}
	presigned, err := s3.NewPresignClient(client).PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(objectName),
		},
		func(po *s3.PresignOptions) {
			po.Expires = expiry
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign R2 URL: %w", err)
	}
	return presigned.URL, nil
}

// DeleteFromS3 deletes an object from Cloudflare R2
func DeleteFromS3(ctx context.Context, objectName string) error {
	bucket, err := getR2Bucket()
	if err != nil {
		return err
	}
	client, err := getR2Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		return fmt.Errorf("R2 delete failed: %w", err)
	}
	return nil
}

// ImageStoreEnabled reports whether task images go to object storage.
func ImageStoreEnabled() bool {
	return strings.ToLower(config.Getenv("IMAGE_STORE", "inline")) == "r2"
}

// DecodeDataURL splits a "data:<mime>;base64,<payload>" string.
func DecodeDataURL(s string) (contentType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrBadImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, ErrBadImage
	}
	contentType = strings.TrimSuffix(meta, ";base64")
	if !strings.HasPrefix(contentType, "image/") {
		return "", nil, ErrBadImage
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrBadImage
	}
	return contentType, data, nil
}

// StoreTaskImage keeps an image reference for a task. With IMAGE_STORE=r2 a
// data URL is uploaded and replaced by its object URL; otherwise the value is
// stored as given.
func StoreTaskImage(ctx context.Context, familyID, kind, image string) (string, error) {
	if image == "" || !ImageStoreEnabled() || !strings.HasPrefix(image, "data:") {
		return image, nil
	}
	contentType, data, err := DecodeDataURL(image)
	if err != nil {
		return "", err
	}
	ext := ".jpg"
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		ext = exts[0]
	}
	key := path.Join("families", familyID, kind, models.NewID()+ext)
	if err := UploadToS3(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return "", err
	}
	if base := os.Getenv("R2_PUBLIC_URL"); base != "" {
		return strings.TrimRight(base, "/") + "/" + key, nil
	}
	return GenerateSignedURL(ctx, key, 7*24*time.Hour)
}

// DeleteTaskImage removes an uploaded image when it lives under R2_PUBLIC_URL.
func DeleteTaskImage(ctx context.Context, ref *string) error {
	base := os.Getenv("R2_PUBLIC_URL")
	if ref == nil || base == "" || !ImageStoreEnabled() {
		return nil
	}
	key, ok := strings.CutPrefix(*ref, strings.TrimRight(base, "/")+"/")
	if !ok {
		return nil
	}
	return DeleteFromS3(ctx, key)
}
