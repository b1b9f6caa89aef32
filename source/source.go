package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"examguard/common"
)

// Source loads an exam submission document.
type Source interface {
	Load(ctx context.Context) (*Document, error)
	Name() string
}

// FileSource reads a document from the local filesystem.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string { return f.Path }

func (f FileSource) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, f.Path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", f.Path, err)
	}
	defer file.Close()

	doc, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return doc, nil
}

// ObjectGetter is the slice of common.S3 a document source needs.
type ObjectGetter interface {
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// S3Source reads a document from an S3 object.
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Key    string
}

func (s S3Source) Name() string { return "s3://" + s.Bucket + "/" + s.Key }

func (s S3Source) Load(ctx context.Context) (*Document, error) {
	body, err := s.Client.Get(ctx, s.Bucket, s.Key)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, s.Name())
		}
		return nil, fmt.Errorf("failed to get %s: %w", s.Name(), err)
	}
	defer body.Close()

	doc, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	return doc, nil
}

// Open resolves a location into a Source. "s3://bucket/key" locations need a
// non-nil client; anything else is treated as a file path.
func Open(location string, client ObjectGetter) (Source, error) {
	if bucket, key, ok := common.ParseS3URI(location); ok {
		if client == nil {
			return nil, fmt.Errorf("s3 input %s requires S3 configuration", location)
		}
		return S3Source{Client: client, Bucket: bucket, Key: key}, nil
	}
	if location == "" {
		return nil, fmt.Errorf("%w: empty input location", ErrInputNotFound)
	}
	return FileSource{Path: location}, nil
}

// Static serves an already decoded document.
type Static struct {
	Doc   *Document
	Label string
}

func (s Static) Name() string { return s.Label }

func (s Static) Load(ctx context.Context) (*Document, error) {
	if s.Doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, s.Label)
	}
	return s.Doc, nil
}
