package inference

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeModel struct {
	out   [][]float64
	err   error
	panic bool
	got   []Tensor
}

func (m *fakeModel) Predict(_ context.Context, batch []Tensor) ([][]float64, error) {
	if m.panic {
		panic("boom")
	}
	m.got = batch
	return m.out, m.err
}

func TestPreprocess_ResizesAndNormalizes(t *testing.T) {
	data := solidPNG(t, 40, 20, color.RGBA{R: 255, G: 0, B: 51, A: 255})

	tensor, err := Preprocess(data, 8)
	require.NoError(t, err)
	require.Len(t, tensor, 8)
	require.Len(t, tensor[0], 8)
	require.Len(t, tensor[0][0], 3)

	px := tensor[4][4]
	assert.InDelta(t, 1.0, px[0], 0.01)
	assert.InDelta(t, 0.0, px[1], 0.01)
	assert.InDelta(t, 0.2, px[2], 0.01)
}

func TestPreprocess_JPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	tensor, err := Preprocess(buf.Bytes(), 0)
	require.NoError(t, err)
	assert.Len(t, tensor, DefaultImageSize)
}

func TestPreprocess_DecodeError(t *testing.T) {
	_, err := Preprocess([]byte("not an image"), 224)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestReduce(t *testing.T) {
	single, err := Reduce([]float64{0.83})
	require.NoError(t, err)
	assert.Equal(t, 0.83, single.Score)
	assert.Equal(t, 0, single.ClassIndex)

	multi, err := Reduce([]float64{0.1, 0.7, 0.2})
	require.NoError(t, err)
	assert.Equal(t, 0.7, multi.Score)
	assert.Equal(t, 1, multi.ClassIndex)
	assert.Equal(t, []float64{0.1, 0.7, 0.2}, multi.Raw)

	clamped, err := Reduce([]float64{1.7})
	require.NoError(t, err)
	assert.Equal(t, 1.0, clamped.Score)

	_, err = Reduce(nil)
	assert.ErrorIs(t, err, ErrInference)
}

// pngHeader returns a PNG holding only a signature, an IHDR declaring
// w x h grayscale pixels and an IEND, so it is tiny whatever it declares.
func pngHeader(w, h uint32) []byte {
	chunk := func(typ string, data []byte) []byte {
		var b bytes.Buffer
		_ = binary.Write(&b, binary.BigEndian, uint32(len(data)))
		b.WriteString(typ)
		b.Write(data)
		_ = binary.Write(&b, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(typ), data...)))
		return b.Bytes()
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth; color type 0 (gray)

	out := []byte("\x89PNG\r\n\x1a\n")
	out = append(out, chunk("IHDR", ihdr)...)
	return append(out, chunk("IEND", nil)...)
}

func TestPreprocess_RejectsOversizedDimensions(t *testing.T) {
	data := pngHeader(12000, 12000)
	require.Less(t, len(data), 100)

	_, err := Preprocess(data, 224)
	require.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "12000x12000")

	_, err = NewAdapter(&fakeModel{}, 4).Analyze(context.Background(), data)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestAdapter_CanceledContext(t *testing.T) {
	m := &fakeModel{out: [][]float64{{0.5}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAdapter(m, 4).Analyze(ctx, solidPNG(t, 4, 4, color.White))
	require.ErrorIs(t, err, ErrInference)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, m.got)
}

func TestAdapter_Analyze(t *testing.T) {
	m := &fakeModel{out: [][]float64{{0.2, 0.9}}}
	a := NewAdapter(m, 4)

	res, err := a.Analyze(context.Background(), solidPNG(t, 6, 6, color.White))
	require.NoError(t, err)
	assert.Equal(t, 0.9, res.Score)
	assert.Equal(t, 1, res.ClassIndex)
	require.Len(t, m.got, 1)
	assert.Len(t, m.got[0], 4)
}

func TestAdapter_Failures(t *testing.T) {
	img := solidPNG(t, 4, 4, color.Black)

	_, err := NewAdapter(&fakeModel{}, 4).Analyze(context.Background(), []byte{0x00, 0x01})
	assert.ErrorIs(t, err, ErrDecode)

	_, err = NewAdapter(&fakeModel{err: errors.New("down")}, 4).Analyze(context.Background(), img)
	assert.ErrorIs(t, err, ErrInference)

	_, err = NewAdapter(&fakeModel{out: [][]float64{}}, 4).Analyze(context.Background(), img)
	assert.ErrorIs(t, err, ErrInference)

	_, err = NewAdapter(&fakeModel{panic: true}, 4).Analyze(context.Background(), img)
	assert.ErrorIs(t, err, ErrInference)
}

func TestServingModel_Predict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/models/cars:predict", r.URL.Path)

		var req predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Instances, 1)

		_, _ = w.Write([]byte(`{"predictions": [[0.1, 0.6, 0.3]]}`))
	}))
	defer srv.Close()

	m := NewServingModel(srv.URL+"/", "cars", srv.Client())
	out, err := m.Predict(context.Background(), []Tensor{{{{0, 0, 0}}}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.1, 0.6, 0.3}}, out)
}

func TestServingModel_ScalarPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions": [0.42]}`))
	}))
	defer srv.Close()

	out, err := NewServingModel(srv.URL, "cars", nil).Predict(context.Background(), []Tensor{{}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.42}}, out)
}

func TestServingModel_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "bad input shape"}`))
	}))
	defer srv.Close()

	_, err := NewServingModel(srv.URL, "cars", nil).Predict(context.Background(), []Tensor{{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad input shape")
}

func TestHandle(t *testing.T) {
	unconfigured := NewHandle(ServingLoader("", "cars", 224))
	assert.False(t, unconfigured.Loaded())
	_, err := unconfigured.Analyze(context.Background(), nil)
	assert.ErrorIs(t, err, ErrModelUnavailable)

	calls := 0
	h := NewHandle(func(context.Context) (Analyzer, error) {
		calls++
		return NewAdapter(&fakeModel{out: [][]float64{{0.5}}}, 2), nil
	})
	assert.True(t, h.Loaded())
	res, err := h.Analyze(context.Background(), solidPNG(t, 2, 2, color.White))
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Score)
	assert.Equal(t, 1, calls)
}
