package content

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type fakeObjects struct {
	objects map[string][]byte
	headErr error
	puts    []*s3.PutObjectInput
}

func (f *fakeObjects) HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; ok {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Mirror_Put(t *testing.T) {
	t.Parallel()

	local := filepath.Join(t.TempDir(), "abcd1234.png")
	if err := os.WriteFile(local, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	objects := &fakeObjects{objects: map[string][]byte{}}
	m := NewS3MirrorFromClient(objects, "site-bucket", "gallery/")

	uploaded, err := m.Put(context.Background(), "abcd1234.png", local)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !uploaded {
		t.Error("expected first Put to upload")
	}
	if string(objects.objects["gallery/abcd1234.png"]) != "png-bytes" {
		t.Errorf("unexpected stored objects: %v", objects.objects)
	}
	put := objects.puts[0]
	if aws.ToString(put.Bucket) != "site-bucket" || aws.ToString(put.ContentType) != "image/png" {
		t.Errorf("unexpected put input: bucket=%s content-type=%s", aws.ToString(put.Bucket), aws.ToString(put.ContentType))
	}

	uploaded, err = m.Put(context.Background(), "abcd1234.png", local)
	if err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	if uploaded || len(objects.puts) != 1 {
		t.Error("existing objects should not be uploaded again")
	}
}

func TestS3Mirror_Put_HeadError(t *testing.T) {
	t.Parallel()

	objects := &fakeObjects{
		objects: map[string][]byte{},
		headErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"},
	}
	m := NewS3MirrorFromClient(objects, "site-bucket", "gallery/")

	if _, err := m.Put(context.Background(), "x.jpg", "/nonexistent"); err == nil {
		t.Fatal("expected error")
	}
	if len(objects.puts) != 0 {
		t.Error("nothing should be uploaded when HEAD fails")
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !isNotFound(&smithy.GenericAPIError{Code: "NoSuchKey"}) {
		t.Error("NoSuchKey should count as not found")
	}
	if isNotFound(errors.New("NotFound")) {
		t.Error("plain errors are not API errors")
	}
}
