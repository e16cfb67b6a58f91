package s3

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcdenbakker/bigsi/blobstore"
)

// fakeDDBClient is an in-memory commit table keyed by version.
type fakeDDBClient struct {
	mu    sync.Mutex
	items map[uint64]string // version -> snapshot_name
}

func newFakeDDBClient() *fakeDDBClient {
	return &fakeDDBClient{items: make(map[uint64]string)}
}

func (f *fakeDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var version uint64
	versionAttr := params.Item["version"].(*ddbtypes.AttributeValueMemberN)
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return nil, err
	}

	if aws.ToString(params.ConditionExpression) == "attribute_not_exists(version)" {
		if _, exists := f.items[version]; exists {
			return nil, &ddbtypes.ConditionalCheckFailedException{}
		}
	}

	f.items[version] = params.Item["snapshot_name"].(*ddbtypes.AttributeValueMemberS).Value
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDBClient) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.items) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}

	versions := make([]uint64, 0, len(f.items))
	for v := range f.items {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })
	latest := versions[0]

	return &dynamodb.QueryOutput{
		Items: []map[string]ddbtypes.AttributeValue{{
			"version":       &ddbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", latest)},
			"snapshot_name": &ddbtypes.AttributeValueMemberS{Value: f.items[latest]},
		}},
	}, nil
}

func newTestCommitStore() (*DDBCommitStore, *fakeDDBClient) {
	ddb := newFakeDDBClient()
	s3Store := NewStore(newFakeS3Client(), "bucket", "indexes")
	return NewDDBCommitStore(s3Store, ddb, "commits", "s3://bucket/indexes"), ddb
}

func TestDDBCommitStore(t *testing.T) {
	ctx := context.Background()

	t.Run("BlobsPassThrough", func(t *testing.T) {
		store, _ := newTestCommitStore()
		require.NoError(t, store.Put(ctx, "v1.bsi", []byte("snapshot data")))

		data, err := blobstore.ReadAll(ctx, store, "v1.bsi")
		require.NoError(t, err)
		assert.Equal(t, []byte("snapshot data"), data)
	})

	t.Run("CurrentUnsetIsNotFound", func(t *testing.T) {
		store, _ := newTestCommitStore()

		_, err := store.Open(ctx, CurrentKey)
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("CommitAndResolve", func(t *testing.T) {
		store, _ := newTestCommitStore()

		require.NoError(t, store.Put(ctx, CurrentKey, []byte("v1.bsi")))

		current, err := blobstore.ReadAll(ctx, store, CurrentKey)
		require.NoError(t, err)
		assert.Equal(t, "v1.bsi", string(current))

		// A second commit supersedes the first
		require.NoError(t, store.Put(ctx, CurrentKey, []byte("v2.bsi")))

		current, err = blobstore.ReadAll(ctx, store, CurrentKey)
		require.NoError(t, err)
		assert.Equal(t, "v2.bsi", string(current))
	})

	t.Run("ConcurrentModification", func(t *testing.T) {
		store, ddb := newTestCommitStore()
		require.NoError(t, store.Put(ctx, CurrentKey, []byte("v1.bsi")))

		// Another publisher commits version 2 between our read and write
		ddb.mu.Lock()
		ddb.items[2] = "theirs.bsi"
		ddb.mu.Unlock()

		// Our commit also targets version 2 and loses the race
		err := store.Put(ctx, CurrentKey, []byte("ours.bsi"))
		assert.ErrorIs(t, err, ErrConcurrentModification)

		// A retry sees version 3 free and succeeds
		require.NoError(t, store.Put(ctx, CurrentKey, []byte("ours.bsi")))

		current, err := blobstore.ReadAll(ctx, store, CurrentKey)
		require.NoError(t, err)
		assert.Equal(t, "ours.bsi", string(current))
	})
}
