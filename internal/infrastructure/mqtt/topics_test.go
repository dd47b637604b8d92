package mqtt

import "testing"

func TestProjectSlug(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/work/sales_etl", "sales_etl"},
		{"/work/Sales ETL", "sales-etl"},
		{"/work/bundle.v2/", "bundle-v2"},
		{"/work/a+b#c", "a-b-c"},
		{"/work/--x--", "x"},
		{"/work/日本", "project"},
		{"/", "project"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ProjectSlug(tt.path); got != tt.want {
				t.Errorf("ProjectSlug(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ValidationResult", NewTopics("dabcheck").ValidationResult("/x/Sales ETL"), "dabcheck/validation/sales-etl/result"},
		{"custom prefix", NewTopics("org/ci/").ValidationResult("/x/p"), "org/ci/validation/p/result"},
		{"empty prefix", NewTopics("").Status(), "dabcheck/system/status"},
		{"zero value", Topics{}.Status(), "dabcheck/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestValidTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  bool
	}{
		{"dabcheck/validation/p/result", true},
		{"", false},
		{"dabcheck/validation/+/result", false},
		{"dabcheck/#", false},
	}

	for _, tt := range tests {
		if got := validTopic(tt.topic); got != tt.want {
			t.Errorf("validTopic(%q) = %v, want %v", tt.topic, got, tt.want)
		}
	}
}
