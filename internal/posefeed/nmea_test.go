package posefeed

import (
	"math"
	"testing"
)

func TestChecksumOK(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"valid GGA", "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47", true},
		{"valid RMC", "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A", true},
		{"corrupted field", "$GPGGA,123519,4807.039,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47", false},
		{"wrong checksum", "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*48", false},
		{"missing dollar", "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47", false},
		{"missing star", "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,", false},
		{"truncated checksum", "$GPGGA,123519*4", false},
		{"bad hex", "$GPGGA,123519*ZZ", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checksumOK(tt.line); got != tt.want {
				t.Errorf("checksumOK(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseCoord(t *testing.T) {
	tests := []struct {
		value string
		hemi  string
		want  float64
	}{
		{"2101.7102", "N", 21.028503333333333},
		{"4807.038", "N", 48.1173},
		{"01131.000", "E", 11.516666666666667},
		{"12219.8200", "W", -122.33033333333333},
		{"0230.00", "S", -2.5},
	}
	for _, tt := range tests {
		got, err := parseCoord(tt.value, tt.hemi)
		if err != nil {
			t.Errorf("parseCoord(%q, %q) returned error: %v", tt.value, tt.hemi, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("parseCoord(%q, %q) = %v, want %v", tt.value, tt.hemi, got, tt.want)
		}
	}
}

func TestParseCoordErrors(t *testing.T) {
	cases := []struct {
		value string
		hemi  string
	}{
		{"2101.7102", "X"},
		{"21", "N"},
		{"131.0", "E"},
		{"abcd.efg", "N"},
		{"4807.0x8", "N"},
	}
	for _, c := range cases {
		if _, err := parseCoord(c.value, c.hemi); err == nil {
			t.Errorf("parseCoord(%q, %q) expected error", c.value, c.hemi)
		}
	}
}

func TestDatumProject(t *testing.T) {
	d := Datum{Lat: 39.538, Lon: -122.331}

	x, y := d.Project(39.538, -122.331)
	if x != 0 || y != 0 {
		t.Errorf("Project at datum = (%v, %v), want origin", x, y)
	}

	// One millidegree north is ~111.19 m.
	x, y = d.Project(39.539, -122.331)
	if math.Abs(x) > 1e-9 {
		t.Errorf("Northward move produced x = %v", x)
	}
	if math.Abs(y-111.19492664455875) > 1e-6 {
		t.Errorf("Northward move produced y = %v, want ~111.195", y)
	}

	// One millidegree east shrinks with cos(latitude).
	x, y = d.Project(39.538, -122.330)
	if math.Abs(y) > 1e-9 {
		t.Errorf("Eastward move produced y = %v", y)
	}
	if math.Abs(x-85.75381104885425) > 1e-6 {
		t.Errorf("Eastward move produced x = %v, want ~85.754", x)
	}

	// South and west go negative.
	x, y = d.Project(39.537, -122.332)
	if x >= 0 || y >= 0 {
		t.Errorf("Southwest move produced (%v, %v), want both negative", x, y)
	}
}

func TestParseSentenceRMC(t *testing.T) {
	f, ok := parseSentence("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	if !ok {
		t.Fatal("Expected RMC sentence to parse")
	}
	if math.Abs(f.lat-48.1173) > 1e-9 {
		t.Errorf("lat = %v, want 48.1173", f.lat)
	}
	if math.Abs(f.lon-11.516666666666667) > 1e-9 {
		t.Errorf("lon = %v, want 11.5166667", f.lon)
	}
	if !f.hasSpeed {
		t.Error("Expected speed to be present")
	}
	if math.Abs(f.speedMPS-11.5235456) > 1e-9 {
		t.Errorf("speedMPS = %v, want 11.5235456", f.speedMPS)
	}
	if !f.hasCourse {
		t.Error("Expected course to be present")
	}
	if f.courseDeg != 84.4 {
		t.Errorf("courseDeg = %v, want 84.4", f.courseDeg)
	}
	if f.hasAlt {
		t.Error("RMC carries no altitude")
	}
}

func TestParseSentenceRMCVoid(t *testing.T) {
	if _, ok := parseSentence("$GPRMC,170514.00,V,,,,,,,250826,,*12"); ok {
		t.Error("Void RMC should not produce a fix")
	}
}

func TestParseSentenceRMCEmptyTrack(t *testing.T) {
	// A receiver that has a fix but no motion solution leaves speed and
	// course empty.
	f, ok := parseSentence("$GPRMC,170514.00,A,3932.3400,N,12219.8200,W,,,250826,,*00")
	if !ok {
		t.Fatal("Expected fix from RMC with empty track fields")
	}
	if f.hasSpeed || f.hasCourse {
		t.Errorf("Expected no speed/course, got hasSpeed=%v hasCourse=%v", f.hasSpeed, f.hasCourse)
	}
}

func TestParseSentenceGGA(t *testing.T) {
	f, ok := parseSentence("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47")
	if !ok {
		t.Fatal("Expected GGA sentence to parse")
	}
	if math.Abs(f.lat-48.1173) > 1e-9 {
		t.Errorf("lat = %v, want 48.1173", f.lat)
	}
	if !f.hasAlt {
		t.Error("Expected altitude to be present")
	}
	if f.altitude != 545.4 {
		t.Errorf("altitude = %v, want 545.4", f.altitude)
	}
	if f.hasSpeed || f.hasCourse {
		t.Error("GGA carries no speed or course")
	}
}

func TestParseSentenceGGANoFix(t *testing.T) {
	if _, ok := parseSentence("$GPGGA,123519,4807.038,N,01131.000,E,0,00,,,M,,M,,*00"); ok {
		t.Error("GGA with fix quality 0 should not produce a fix")
	}
}

func TestParseSentenceOtherTypes(t *testing.T) {
	lines := []string{
		"$GPVTG,084.4,T,,M,022.4,N,041.5,K*00",
		"$GPGSV,3,1,11,03,03,111,00*00",
		"$PMTK001,314,3*00",
	}
	for _, line := range lines {
		if _, ok := parseSentence(line); ok {
			t.Errorf("Sentence %q should not produce a fix", line)
		}
	}
}
