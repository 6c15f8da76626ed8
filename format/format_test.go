package format

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"a.heic", Direct},
		{"A.HEIC", Direct},
		{"IMG_0001.HeIc", Direct},
		{"b.livp", Container},
		{"B.LIVP", Container},
		{"/some/dir/c.Livp", Container},
		{"d.txt", Unsupported},
		{"heic", Unsupported},
		{"archive.livp.zip", Unsupported},
		{"", Unsupported},
		{".heic", Direct},
	}
	for _, tt := range tests {
		if got := Classify(tt.name); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	for _, pair := range [][2]string{
		{"A.HEIC", "a.heic"},
		{"Live.LIVP", "live.livp"},
		{"NOTES.TXT", "notes.txt"},
	} {
		if Classify(pair[0]) != Classify(pair[1]) {
			t.Errorf("Classify(%q) != Classify(%q)", pair[0], pair[1])
		}
	}
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		in      string
		want    Output
		wantErr bool
	}{
		{"jpg", JPEG, false},
		{"JPG", JPEG, false},
		{"jpeg", JPEG, false},
		{".png", PNG, false},
		{"PNG", PNG, false},
		{"webp", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseOutput(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutput(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseOutput(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		in   string
		out  Output
		want string
	}{
		{"Photo (1).HEIC", JPEG, "Photo (1).jpg"},
		{"/in/dir/Photo (1).heic", JPEG, "Photo (1).jpg"},
		{"b.livp", PNG, "b.png"},
		{"IMG.LIVP", PNG, "IMG.png"},
		{"archive.tar.livp", JPEG, "archive.tar.jpg"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.in, tt.out); got != tt.want {
			t.Errorf("OutputName(%q, %v) = %q, want %q", tt.in, tt.out, got, tt.want)
		}
	}
}
