package kdtable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/sqlite-kdtree/internal/kd/tree"
)

func TestParseTableOptions(t *testing.T) {
	testCases := []struct {
		description string
		args        []string
		expect      tableOptions
	}{
		{
			description: "defaults",
			expect:      tableOptions{kind: indexAuto, bucket: tree.DefaultBucketCapacity, metric: tree.DistanceFunctionSquaredL2},
		},
		{
			description: "all options",
			args:        []string{" index = kd", "bucket=8", "metric='manhattan'"},
			expect:      tableOptions{kind: indexKD, bucket: 8, metric: tree.DistanceFunctionL1},
		},
		{
			description: "invalid values keep defaults",
			args:        []string{"index=cover", "bucket=-3", "metric=cosine", "noise"},
			expect:      tableOptions{kind: indexAuto, bucket: tree.DefaultBucketCapacity, metric: tree.DistanceFunctionSquaredL2},
		},
		{
			description: "euclidean brute",
			args:        []string{"INDEX=BRUTE", "distance=l2"},
			expect:      tableOptions{kind: indexBrute, bucket: tree.DefaultBucketCapacity, metric: tree.DistanceFunctionEuclidean},
		},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, parseTableOptions(testCase.args), testCase.description)
	}
}

func TestTableOptions_Resolve(t *testing.T) {
	auto := parseTableOptions(nil)
	assert.Equal(t, indexBrute, auto.resolveIndexKind(autoKDMinPoints-1))
	assert.Equal(t, indexKD, auto.resolveIndexKind(autoKDMinPoints))
	assert.Equal(t, indexKD, parseTableOptions([]string{"index=kd"}).resolveIndexKind(1))
	assert.Equal(t, indexBrute, parseTableOptions([]string{"index=brute"}).resolveIndexKind(1<<20))
}
