package arxiv

import (
	"errors"
	"testing"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title type="html">ArXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/2106.15928v2</id>
    <published>2021-06-30T09:00:00Z</published>
    <title>Attention Is
      Still All You Need</title>
    <summary>  We revisit attention.
      It still works.  </summary>
    <author><name>Ann Author</name></author>
    <author><name>Bob  Builder</name></author>
    <arxiv:primary_category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="stat.ML" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/hep-th/9901001v1</id>
    <published>1999-01-01T00:00:00Z</published>
    <title>Old Style</title>
    <summary>Legacy identifier.</summary>
    <author><name>Carol</name></author>
    <category term="hep-th" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

func TestParseFeed(t *testing.T) {
	papers, err := ParseFeed([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("ParseFeed() error = %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("ParseFeed() returned %d papers, want 2", len(papers))
	}

	p := papers[0]
	if p.ID != "2106.15928v2" {
		t.Errorf("ID = %q", p.ID)
	}
	if p.URL != "http://arxiv.org/abs/2106.15928v2" {
		t.Errorf("URL = %q", p.URL)
	}
	if p.Title != "Attention Is Still All You Need" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Abstract != "We revisit attention. It still works." {
		t.Errorf("Abstract = %q", p.Abstract)
	}
	if p.Category != "cs.LG" {
		t.Errorf("Category = %q, want primary category cs.LG", p.Category)
	}
	if p.Date != "2021-06-30T09:00:00Z" {
		t.Errorf("Date = %q", p.Date)
	}
	if len(p.Authors) != 2 || p.Authors[1] != "Bob Builder" {
		t.Errorf("Authors = %v", p.Authors)
	}

	old := papers[1]
	if old.ID != "hep-th/9901001v1" || old.Category != "hep-th" {
		t.Errorf("old-style paper = %+v", old)
	}
}

func TestParseFeed_Empty(t *testing.T) {
	papers, err := ParseFeed([]byte(`<feed xmlns="http://www.w3.org/2005/Atom"><title>ArXiv Query</title></feed>`))
	if err != nil {
		t.Fatalf("ParseFeed() error = %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("ParseFeed() returned %d papers, want 0", len(papers))
	}
}

func TestParseFeed_ErrorEntry(t *testing.T) {
	feed := `<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/api/errors#incorrect_id_format_for_1234</id>
    <title>Error</title>
    <summary>incorrect id format for 1234</summary>
  </entry>
</feed>`
	papers, err := ParseFeed([]byte(feed))
	if err != nil {
		t.Fatalf("ParseFeed() error = %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("ParseFeed() returned %v, want no papers", papers)
	}
}

func TestParseFeed_Malformed(t *testing.T) {
	_, err := ParseFeed([]byte("<html><body>Service Unavailable"))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("ParseFeed() error = %v, want ErrInvalidResponse", err)
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2106.15928v2", "2106.15928v2"},
		{"  2106.15928  ", "2106.15928"},
		{"http://arxiv.org/abs/2106.15928v2", "2106.15928v2"},
		{"https://arxiv.org/pdf/2106.15928v2.pdf", "2106.15928v2"},
		{"https://arxiv.org/abs/hep-th/9901001", "hep-th/9901001"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeID(tt.input); got != tt.want {
				t.Errorf("NormalizeID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
