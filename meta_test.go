package csvingest

import "testing"

// TestDetectCompression exercises the precedence chain: explicit
// override, then Content-Encoding, then Content-Type, then name suffix.
func TestDetectCompression(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		meta SourceMeta
		want Compression
	}{
		{
			name: "all_zero_means_none",
			meta: SourceMeta{},
			want: CompressionNone,
		},
		{
			name: "content_encoding_gzip",
			meta: SourceMeta{ContentEncoding: "gzip"},
			want: CompressionGzip,
		},
		{
			name: "content_encoding_x_gzip_uppercase",
			meta: SourceMeta{ContentEncoding: "X-Gzip"},
			want: CompressionGzip,
		},
		{
			name: "content_encoding_token_list",
			meta: SourceMeta{ContentEncoding: "identity, zstd"},
			want: CompressionZstd,
		},
		{
			name: "content_encoding_unknown_token_falls_through",
			meta: SourceMeta{ContentEncoding: "br", NameHint: "x.zst"},
			want: CompressionZstd,
		},
		{
			name: "content_type_application_gzip",
			meta: SourceMeta{ContentType: "application/gzip"},
			want: CompressionGzip,
		},
		{
			name: "content_type_params_stripped",
			meta: SourceMeta{ContentType: "application/zstd; charset=utf-8"},
			want: CompressionZstd,
		},
		{
			name: "content_type_text_csv_is_none",
			meta: SourceMeta{ContentType: "text/csv"},
			want: CompressionNone,
		},
		{
			name: "name_hint_gz",
			meta: SourceMeta{NameHint: "skus.csv.GZ"},
			want: CompressionGzip,
		},
		{
			name: "name_hint_zstd",
			meta: SourceMeta{NameHint: "skus.csv.zstd"},
			want: CompressionZstd,
		},
		{
			name: "explicit_beats_every_hint",
			meta: SourceMeta{
				Compression:     CompressionZstd,
				ContentEncoding: "gzip",
				ContentType:     "application/gzip",
				NameHint:        "skus.csv.gz",
			},
			want: CompressionZstd,
		},
		{
			name: "explicit_none_beats_gz_suffix",
			meta: SourceMeta{Compression: CompressionNone, NameHint: "skus.csv.gz"},
			want: CompressionNone,
		},
		{
			name: "encoding_beats_type_and_name",
			meta: SourceMeta{
				ContentEncoding: "zstd",
				ContentType:     "application/gzip",
				NameHint:        "skus.csv.gz",
			},
			want: CompressionZstd,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			got := Detect(c.meta)
			if got.Compression != c.want {
				t.Fatalf("Detect(%+v).Compression = %v, want %v", c.meta, got.Compression, c.want)
			}
			// pure function: a second call must agree
			if again := Detect(c.meta); again != got {
				t.Fatalf("Detect not stable: %+v then %+v", got, again)
			}
		})
	}
}

func TestDetectCharset(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		meta     SourceMeta
		want     string
		wantUTF8 bool
	}{
		{
			name:     "default_is_utf8",
			meta:     SourceMeta{ContentType: "text/csv"},
			want:     "utf-8",
			wantUTF8: true,
		},
		{
			name: "charset_param",
			meta: SourceMeta{ContentType: "text/csv; charset=windows-1250"},
			want: "windows-1250",
		},
		{
			name: "charset_param_quoted_and_cased",
			meta: SourceMeta{ContentType: `text/csv; charset="Windows-1252"`},
			want: "windows-1252",
		},
		{
			name:     "explicit_utf8_label_normalizes_to_zero_value",
			meta:     SourceMeta{Charset: "UTF-8"},
			want:     "utf-8",
			wantUTF8: true,
		},
		{
			name: "explicit_beats_content_type_param",
			meta: SourceMeta{Charset: "iso-8859-2", ContentType: "text/csv; charset=windows-1250"},
			want: "iso-8859-2",
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			got := Detect(c.meta).Charset
			if got.String() != c.want {
				t.Fatalf("Detect(%+v).Charset = %q, want %q", c.meta, got, c.want)
			}
			if got.IsUTF8() != c.wantUTF8 {
				t.Fatalf("IsUTF8() = %v, want %v", got.IsUTF8(), c.wantUTF8)
			}
		})
	}
}
