package orbit

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jaivanshchawla/Satviz/internal/geometry"
)

var issTLE = TLE{
	Name:  "ISS (ZARYA)",
	Line1: "1 25544U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9994",
	Line2: "2 25544  51.6369  94.7823 0002558 120.7586  15.7840 15.49587957510533",
}

// resum replaces the checksum column of a 69-column line.
func resum(line string) string {
	body := line[:LineLength-1]
	return body + strconv.Itoa(Checksum(body))
}

func withMeanMotion(t TLE, mm string) TLE {
	t.Line2 = resum(t.Line2[:52] + mm + t.Line2[63:])
	return t
}

func TestChecksum(t *testing.T) {
	for _, line := range []string{issTLE.Line1, issTLE.Line2} {
		want := int(line[68] - '0')
		if got := Checksum(line); got != want {
			t.Errorf("Checksum(%q) = %d, want %d", line, got, want)
		}
	}
	if got := Checksum("1 -----"); got != 6 {
		t.Errorf("minus signs should count one each, got %d", got)
	}
}

func TestValidateFormat(t *testing.T) {
	if err := ValidateFormat(issTLE); err != nil {
		t.Fatalf("ValidateFormat(ISS) = %v", err)
	}

	badSum := issTLE
	last := (int(badSum.Line1[68]-'0') + 1) % 10
	badSum.Line1 = badSum.Line1[:68] + strconv.Itoa(last)

	wrongPrefix := issTLE
	wrongPrefix.Line2 = "3" + wrongPrefix.Line2[1:]

	catalog := issTLE
	catalog.Line2 = resum(catalog.Line2[:2] + "25545" + catalog.Line2[7:])

	tests := []struct {
		name string
		tle  TLE
	}{
		{"short line", TLE{Line1: issTLE.Line1[:60], Line2: issTLE.Line2}},
		{"bad checksum", badSum},
		{"wrong line number", wrongPrefix},
		{"catalog mismatch", catalog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat(tt.tle)
			if !errors.Is(err, ErrMalformedElements) {
				t.Fatalf("ValidateFormat() = %v, want ErrMalformedElements", err)
			}
		})
	}
}

func TestEpoch(t *testing.T) {
	got, err := issTLE.Epoch()
	if err != nil {
		t.Fatal(err)
	}
	frac := 0.37048074
	want := time.Date(2025, 5, 18, 0, 0, 0, 0, time.UTC).Add(time.Duration(frac * float64(24*time.Hour)))
	if d := got.Sub(want); d < -time.Millisecond || d > time.Millisecond {
		t.Errorf("Epoch() = %s, want %s", got, want)
	}

	n, err := issTLE.CatalogNumber()
	if err != nil || n != 25544 {
		t.Errorf("CatalogNumber() = %d, %v", n, err)
	}
}

func TestParseModel(t *testing.T) {
	for in, want := range map[string]Model{"": ModelSGP4, "SGP4": ModelSGP4, " vallado ": ModelVallado} {
		got, err := ParseModel(in)
		if err != nil || got != want {
			t.Errorf("ParseModel(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseModel("sdp4"); err == nil {
		t.Error("ParseModel(sdp4) should fail")
	}
}

func TestInitializeRejects(t *testing.T) {
	tests := []struct {
		name     string
		tle      TLE
		wantCode int
	}{
		{"zero mean motion", withMeanMotion(issTLE, " 0.00000000"), StatusMeanMotion},
		{"semi-major axis below 0.95 radii", withMeanMotion(issTLE, "19.00000000"), StatusMeanElements},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Initialize(tt.tle, ModelSGP4)
			var perr *ElementParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Initialize() = %v, want *ElementParseError", err)
			}
			if perr.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", perr.Code, tt.wantCode)
			}
			if perr.Cause != StatusCause(tt.wantCode) {
				t.Errorf("Cause = %q", perr.Cause)
			}
		})
	}

	t.Run("format", func(t *testing.T) {
		bad := issTLE
		bad.Line2 = bad.Line2[:40]
		_, err := Initialize(bad, ModelSGP4)
		if !errors.Is(err, ErrMalformedElements) {
			t.Fatalf("Initialize() = %v, want ErrMalformedElements", err)
		}
		var perr *ElementParseError
		if !errors.As(err, &perr) || perr.Name != "ISS (ZARYA)" {
			t.Errorf("error should name the element set, got %v", err)
		}
	})
}

// withColumn overwrites line n of t at column at with s and fixes the checksum.
func withColumn(t TLE, n, at int, s string) TLE {
	if n == 1 {
		t.Line1 = resum(t.Line1[:at] + s + t.Line1[at+len(s):])
	} else {
		t.Line2 = resum(t.Line2[:at] + s + t.Line2[at+len(s):])
	}
	return t
}

func TestInitializeRejectsMalformedFields(t *testing.T) {
	tests := []struct {
		name  string
		tle   TLE
		field string
	}{
		{"epoch year", withColumn(issTLE, 1, 18, "2O"), "epoch year"},
		{"epoch day", withColumn(issTLE, 1, 23, "#"), "epoch day"},
		{"ndot", withColumn(issTLE, 1, 35, "Q"), "mean motion derivative"},
		{"nddot", withColumn(issTLE, 1, 46, "a"), "mean motion second derivative"},
		{"bstar", withColumn(issTLE, 1, 55, "?"), "bstar"},
		{"inclination", withColumn(issTLE, 2, 11, "X"), "inclination"},
		{"raan", withColumn(issTLE, 2, 21, "."), "right ascension"},
		{"arg perigee", withColumn(issTLE, 2, 36, "-"), "argument of perigee"},
		{"mean anomaly", withColumn(issTLE, 2, 45, "z"), "mean anomaly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateFormat(tt.tle); err != nil {
				t.Fatalf("corrupted set should still pass ValidateFormat: %v", err)
			}
			for _, model := range []Model{ModelSGP4, ModelVallado} {
				rec, err := Initialize(tt.tle, model)
				if rec != nil || !errors.Is(err, ErrMalformedElements) {
					t.Fatalf("Initialize(%s) = %v, %v; want ErrMalformedElements", model, rec, err)
				}
				var perr *ElementParseError
				if !errors.As(err, &perr) || !strings.Contains(perr.Error(), tt.field) {
					t.Errorf("error %v should name %q", err, tt.field)
				}
			}
		})
	}
}

func TestPropagate(t *testing.T) {
	for _, model := range []Model{ModelSGP4, ModelVallado} {
		t.Run(string(model), func(t *testing.T) {
			rec, err := Initialize(issTLE, model)
			if err != nil {
				t.Fatalf("Initialize() = %v", err)
			}
			if rec.Model() != model || rec.CatalogNumber != 25544 {
				t.Fatalf("record = %+v", rec)
			}

			at := rec.Epoch.Add(10 * time.Minute).Truncate(time.Second)
			st, err := rec.Propagate(at)
			if err != nil {
				t.Fatalf("Propagate() = %v", err)
			}
			if !st.Time.Equal(at) {
				t.Errorf("state time = %s, want %s", st.Time, at)
			}
			if r := geometry.Magnitude(st.Position); r < 6700 || r > 6900 {
				t.Errorf("|r| = %.1f km, want low earth orbit", r)
			}
			if v := geometry.Magnitude(st.Velocity); v < 7.4 || v > 7.9 {
				t.Errorf("|v| = %.3f km/s, want ~7.66", v)
			}

			geo := ECIToGeodetic(st.Position, at)
			if geo.AltitudeKm < 330 || geo.AltitudeKm > 500 {
				t.Errorf("altitude = %.1f km", geo.AltitudeKm)
			}
			if math.Abs(geo.LatitudeDeg) > 51.7 {
				t.Errorf("latitude %.2f exceeds inclination", geo.LatitudeDeg)
			}
		})
	}
}

func TestPropagateModelsAgree(t *testing.T) {
	a, err := Initialize(issTLE, ModelSGP4)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Initialize(issTLE, ModelVallado)
	if err != nil {
		t.Fatal(err)
	}

	at := a.Epoch.Add(45 * time.Minute).Truncate(time.Second)
	sa, err := a.Propagate(at)
	if err != nil {
		t.Fatal(err)
	}
	sb, err := b.Propagate(at)
	if err != nil {
		t.Fatal(err)
	}
	if d := geometry.Magnitude(geometry.Sub(sa.Position, sb.Position)); d > 5 {
		t.Errorf("backends disagree by %.3f km", d)
	}
}

func TestECIToGeodetic(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	eq := ECIToGeodetic(geometry.Vector{X: 7000}, at)
	if math.Abs(eq.LatitudeDeg) > 1e-6 {
		t.Errorf("equatorial latitude = %v", eq.LatitudeDeg)
	}
	if eq.AltitudeKm < 620 || eq.AltitudeKm > 624 {
		t.Errorf("equatorial altitude = %.2f", eq.AltitudeKm)
	}
	if eq.LongitudeDeg < -180 || eq.LongitudeDeg > 180 {
		t.Errorf("longitude %.2f out of range", eq.LongitudeDeg)
	}

	pole := ECIToGeodetic(geometry.Vector{Z: 7000}, at)
	if pole.LatitudeDeg < 89.9 {
		t.Errorf("polar latitude = %v", pole.LatitudeDeg)
	}

	if again := ECIToGeodetic(geometry.Vector{X: 7000}, at); again != eq {
		t.Error("ECIToGeodetic is not deterministic")
	}
}

func TestPhysics(t *testing.T) {
	p := DefaultPhysics()
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}
	// A 7151 km circular orbit completes about 14.3 revolutions per day.
	if n := p.CircularMeanMotion(7151); math.Abs(n-14.36) > 0.05 {
		t.Errorf("CircularMeanMotion(7151) = %.4f", n)
	}
	if err := (Physics{EarthRadiusKm: 0, MuKm3S2: 1}).Validate(); err == nil {
		t.Error("zero radius should be rejected")
	}
	if err := (Physics{EarthRadiusKm: 1, MuKm3S2: math.NaN()}).Validate(); err == nil {
		t.Error("NaN mu should be rejected")
	}
}
