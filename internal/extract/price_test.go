package extract

import "testing"

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"129,90", "129.90"},
		{"129.90", "129.90"},
		{"€ 129,90", "129.90"},
		{"$1,299.00", "1299.00"},
		{"1.299,90", "1299.90"},
		{"129", "129"},
		{"R$ 49,99", "49.99"},
		{"", ""},
		{"free", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizePrice(tt.in); got != tt.want {
				t.Errorf("NormalizePrice(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDiscountPercentage(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		original string
		want     int
	}{
		{"half off", "50.00", "100.00", 50},
		{"comma prices", "64,95", "129,90", 50},
		{"no discount", "100.00", "100.00", 0},
		{"price above original", "120.00", "100.00", 0},
		{"unparseable", "free", "100.00", 0},
		{"missing original", "50.00", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DiscountPercentage(tt.price, tt.original); got != tt.want {
				t.Errorf("DiscountPercentage(%q, %q) = %d, want %d", tt.price, tt.original, got, tt.want)
			}
		})
	}
}
