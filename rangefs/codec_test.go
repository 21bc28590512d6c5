package rangefs

import (
	"bytes"
	"errors"
	"slices"
	"testing"
)

var sampleHandles = []Handle{
	{Backend: "s3", Container: "logs", Key: "2026/01/a.log.gz", ObjectSize: 1024},
	{Backend: "s3", Container: "logs", Key: "2026/01/b.log", ObjectSize: 0},
	{Backend: "minio", Container: "media", Key: "clip.mp4", ObjectSize: 1 << 33},
}

func TestWriteReadHandles_RoundTrip(t *testing.T) {
	for _, codecName := range []string{"jsonl", "parquet"} {
		for _, compName := range []string{"noop", "gzip", "zstd"} {
			t.Run(codecName+"/"+compName, func(t *testing.T) {
				codec, err := CodecFor(codecName)
				if err != nil {
					t.Fatalf("CodecFor failed: %v", err)
				}
				comp, err := CompressorFor(compName)
				if err != nil {
					t.Fatalf("CompressorFor failed: %v", err)
				}

				var buf bytes.Buffer
				if err := WriteHandles(&buf, sampleHandles, codec, comp); err != nil {
					t.Fatalf("WriteHandles failed: %v", err)
				}
				got, err := ReadHandles(&buf, codec, comp)
				if err != nil {
					t.Fatalf("ReadHandles failed: %v", err)
				}
				if !slices.Equal(got, sampleHandles) {
					t.Errorf("round trip = %+v, want %+v", got, sampleHandles)
				}
			})
		}
	}
}

func TestJSONLCodec_OneHandlePerLine(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONLCodec().Encode(&buf, sampleHandles[:2]); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := `{"backend":"s3","container":"logs","key":"2026/01/a.log.gz","size":1024}` + "\n" +
		`{"backend":"s3","container":"logs","key":"2026/01/b.log","size":0}` + "\n"
	if buf.String() != want {
		t.Errorf("Encode =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestJSONLCodec_SkipsBlankLines(t *testing.T) {
	input := "\n" + `{"backend":"s3","container":"c","key":"k","size":3}` + "\n\n"
	got, err := NewJSONLCodec().Decode(bytes.NewBufferString(input))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 1 || got[0].Key != "k" || got[0].ObjectSize != 3 {
		t.Errorf("Decode = %+v", got)
	}
}

func TestJSONLCodec_MalformedLine(t *testing.T) {
	if _, err := NewJSONLCodec().Decode(bytes.NewBufferString("{broken\n")); err == nil {
		t.Error("expected error for malformed line")
	}
}

func TestParquetCodec_EmptyInput(t *testing.T) {
	got, err := NewParquetCodec().Decode(bytes.NewReader(nil))
	if err != nil || len(got) != 0 {
		t.Errorf("Decode(empty) = %+v, %v", got, err)
	}
}

func TestCodecFor_Unknown(t *testing.T) {
	if _, err := CodecFor("avro"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("expected ErrUnknownCodec, got %v", err)
	}
	if _, err := CompressorFor("brotli"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("expected ErrUnknownCodec, got %v", err)
	}
}

func TestCompressorFor(t *testing.T) {
	tests := []struct {
		name string
		want string
		ext  string
	}{
		{"gzip", "gzip", ".gz"},
		{"zstd", "zstd", ".zst"},
		{"noop", "noop", ""},
		{"none", "noop", ""},
		{"", "noop", ""},
	}
	for _, tt := range tests {
		comp, err := CompressorFor(tt.name)
		if err != nil {
			t.Fatalf("CompressorFor(%q) failed: %v", tt.name, err)
		}
		if comp.Name() != tt.want || comp.Extension() != tt.ext {
			t.Errorf("CompressorFor(%q) = %s %q, want %s %q", tt.name, comp.Name(), comp.Extension(), tt.want, tt.ext)
		}
	}
}

func TestCompressorForKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"a.log.gz", "gzip"},
		{"a.log.zst", "zstd"},
		{"a.log", "noop"},
		{"gz", "noop"},
	}
	for _, tt := range tests {
		if got := CompressorForKey(tt.key).Name(); got != tt.want {
			t.Errorf("CompressorForKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestReadHandles_CorruptCompression(t *testing.T) {
	_, err := ReadHandles(bytes.NewBufferString("not gzip"), NewJSONLCodec(), NewGzipCompressor())
	if err == nil {
		t.Error("expected error for corrupt gzip stream")
	}
}
