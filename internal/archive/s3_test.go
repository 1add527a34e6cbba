package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/efactura/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	objects map[string][]byte
	types   map[string]string
	headErr error
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStore) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeStore) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func writeTree(t *testing.T) (root, dir string) {
	t.Helper()
	root = t.TempDir()
	dir = filepath.Join(root, "2025", "RO1", "Primite", "03", "2025-03-02_123")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "123.xml"), []byte("<Invoice/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "123.pdf"), []byte("%PDF-"), 0o644))
	return root, dir
}

func TestS3Mirror_MirrorDir(t *testing.T) {
	root, dir := writeTree(t)
	store := newFakeStore()
	m := NewMirror(store, "invoices", "/efactura/", root, logging.NewDiscardLogger())

	n, err := m.MirrorDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	key := "efactura/2025/RO1/Primite/03/2025-03-02_123/123.xml"
	assert.Equal(t, []byte("<Invoice/>"), store.objects[key])
	assert.Equal(t, "application/xml", store.types[key])

	n, err = m.MirrorDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Zero(t, n, "existing objects are not uploaded again")
}

func TestS3Mirror_Errors(t *testing.T) {
	root, dir := writeTree(t)

	t.Run("head failure", func(t *testing.T) {
		store := newFakeStore()
		store.headErr = errors.New("access denied")
		_, err := NewMirror(store, "b", "", root, logging.NewDiscardLogger()).MirrorDir(context.Background(), dir)
		require.ErrorContains(t, err, "access denied")
	})

	t.Run("put failure", func(t *testing.T) {
		store := newFakeStore()
		store.putErr = errors.New("slow down")
		_, err := NewMirror(store, "b", "", root, logging.NewDiscardLogger()).MirrorDir(context.Background(), dir)
		require.ErrorContains(t, err, "slow down")
	})

	t.Run("outside root", func(t *testing.T) {
		m := NewMirror(newFakeStore(), "b", "", dir, logging.NewDiscardLogger())
		_, err := m.Key(filepath.Join(root, "other.xml"))
		require.Error(t, err)
	})
}

func TestNewS3Mirror_AppliesConfig(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	var lo awsconfig.LoadOptions
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{Region: lo.Region}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) ObjectStore {
		for _, fn := range optFns {
			fn(&opts)
		}
		return newFakeStore()
	}

	cfg := Config{
		Bucket:    "invoices",
		Region:    "eu-central-1",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}
	m, err := NewS3Mirror(context.Background(), cfg, t.TempDir(), logging.NewDiscardLogger())
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, "eu-central-1", lo.Region)
	require.NotNil(t, lo.Credentials)
	creds, err := lo.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "minioadmin", creds.AccessKeyID)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
	assert.True(t, cfg.Enabled())
	assert.False(t, Config{}.Enabled())
}

func TestNewS3Mirror_LoadError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no profile")
	}

	_, err := NewS3Mirror(context.Background(), Config{Bucket: "b"}, t.TempDir(), logging.NewDiscardLogger())
	require.ErrorContains(t, err, "no profile")
}
