package semantic

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/matsen/arxivindex/internal/embedding"
	"github.com/matsen/arxivindex/internal/vectorindex"
)

const fakeDim = 8

var errFakeEmbed = errors.New("fake embedder failure")

// fakeProvider maps identical strings to identical vectors and distinct
// strings to distinct vectors. Texts in vectors use the given vector; texts
// in fail return an error.
type fakeProvider struct {
	model   string
	vectors map[string][]float32
	fail    map[string]bool
	calls   int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{model: "fake-model"}
}

func (p *fakeProvider) Embed(_ context.Context, text string) (embedding.Embedding, error) {
	p.calls++
	if p.fail[text] {
		return embedding.Embedding{}, errFakeEmbed
	}
	if v, ok := p.vectors[text]; ok {
		return embedding.Embedding{Vector: append([]float32(nil), v...)}, nil
	}
	return embedding.Embedding{Vector: hashVector(text)}, nil
}

func (p *fakeProvider) ModelName() string { return p.model }

// fakeBatchProvider adds EmbedBatch on top of fakeProvider.
type fakeBatchProvider struct {
	*fakeProvider
	batches int
}

func (p *fakeBatchProvider) EmbedBatch(ctx context.Context, texts []string) ([]embedding.Embedding, error) {
	p.batches++
	out := make([]embedding.Embedding, len(texts))
	for i, text := range texts {
		emb, err := p.fakeProvider.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

func hashVector(text string) []float32 {
	v := make([]float32, fakeDim)
	for i := range v {
		h := fnv.New32a()
		h.Write([]byte{byte(i)})
		h.Write([]byte(text))
		v[i] = float32(h.Sum32()%1000) / 100
	}
	return v
}

// failingIndex wraps a flat index and fails the failOn-th call to Add.
type failingIndex struct {
	vectorindex.Index
	adds   int
	failOn int
}

var errFakeInsert = errors.New("fake insert failure")

func (f *failingIndex) Add(vec []float32) (int, error) {
	f.adds++
	if f.adds == f.failOn {
		return 0, errFakeInsert
	}
	return f.Index.Add(vec)
}

// factoryFailingSecond returns a factory whose second index (abstract)
// fails on the failOn-th Add.
func factoryFailingSecond(failOn int) vectorindex.Factory {
	n := 0
	return func() vectorindex.Index {
		n++
		if n%2 == 0 {
			return &failingIndex{Index: vectorindex.NewFlat(), failOn: failOn}
		}
		return vectorindex.NewFlat()
	}
}
