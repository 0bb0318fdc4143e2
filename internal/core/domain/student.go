package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnknownStudentID is reported when a request carries no student_id.
const UnknownStudentID = "unknown"

// NumFeatures is the width of the model input vector.
const NumFeatures = 15

// Feature names in the positional order the ensemble was trained on.
const (
	FeatureAge                  = "age"
	FeatureCGPA                 = "cgpa"
	FeatureAttendanceRate       = "attendance_rate"
	FeatureFamilyIncome         = "family_income"
	FeaturePastFailures         = "past_failures"
	FeatureStudyHoursPerWeek    = "study_hours_per_week"
	FeatureAssignmentsSubmitted = "assignments_submitted"
	FeatureProjectsCompleted    = "projects_completed"
	FeatureTotalActivities      = "total_activities"
	FeatureScholarship          = "scholarship"
	FeatureExtraCurricular      = "extra_curricular"
	FeatureSportsParticipation  = "sports_participation"
	FeatureParentalEducation    = "parental_education"
	FeatureGender               = "gender"
	FeatureDepartment           = "department"
)

var FeatureNames = []string{
	FeatureAge,
	FeatureCGPA,
	FeatureAttendanceRate,
	FeatureFamilyIncome,
	FeaturePastFailures,
	FeatureStudyHoursPerWeek,
	FeatureAssignmentsSubmitted,
	FeatureProjectsCompleted,
	FeatureTotalActivities,
	FeatureScholarship,
	FeatureExtraCurricular,
	FeatureSportsParticipation,
	FeatureParentalEducation,
	FeatureGender,
	FeatureDepartment,
}

var featureIndex = func() map[string]int {
	idx := make(map[string]int, len(FeatureNames))
	for i, name := range FeatureNames {
		idx[name] = i
	}
	return idx
}()

// ReferenceVector is a known-good row used to self-test a freshly loaded model.
var ReferenceVector = []float64{20, 7.5, 85, 50000, 2, 15, 45, 3, 8, 1, 1, 0, 1, 1, 4}

var departmentLabels = map[int]string{
	0: "ARTS",
	1: "BIOLOGY",
	2: "CIVIL",
	3: "COMMERCE",
	4: "COMPUTER SCIENCE",
	5: "ELECTRONICS",
	6: "MECHANICAL",
}

var genderLabels = map[int]string{
	0: "Female",
	1: "Male",
	2: "Other",
}

// DepartmentLabel maps an encoded department to its name.
func DepartmentLabel(code int) string {
	if l, ok := departmentLabels[code]; ok {
		return l
	}
	return "UNKNOWN"
}

// GenderLabel maps an encoded gender to its name.
func GenderLabel(code int) string {
	if l, ok := genderLabels[code]; ok {
		return l
	}
	return "Unknown"
}

// StudentRecord is the flat attribute record scored by the model. Values that
// were absent or null in the request are stored as zero.
type StudentRecord struct {
	StudentID string
	values    [NumFeatures]float64
	present   [NumFeatures]bool
	text      [NumFeatures]string
}

// NewStudentRecord builds a record from a decoded JSON object. Unknown keys are
// ignored; missing and null features default to zero.
func NewStudentRecord(raw map[string]any) (*StudentRecord, error) {
	rec := &StudentRecord{StudentID: StudentIDFrom(raw)}

	for i, name := range FeatureNames {
		v, ok := raw[name]
		if !ok || v == nil {
			continue
		}
		f, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFeature, name, err)
		}
		rec.values[i] = f
		rec.present[i] = true
		rec.text[i] = literal(v)
	}

	return rec, nil
}

// NewStudentRecordFromValues builds a record from already-parsed feature values.
func NewStudentRecordFromValues(studentID string, values map[string]float64) *StudentRecord {
	if studentID == "" {
		studentID = UnknownStudentID
	}
	rec := &StudentRecord{StudentID: studentID}
	for name, v := range values {
		if i, ok := featureIndex[name]; ok {
			rec.values[i] = v
			rec.present[i] = true
		}
	}
	return rec
}

// Vector returns the features in model order.
func (r *StudentRecord) Vector() []float64 {
	out := make([]float64, len(r.values))
	copy(out, r.values[:])
	return out
}

// Value returns the named feature, zero when absent.
func (r *StudentRecord) Value(name string) float64 {
	i, ok := featureIndex[name]
	if !ok {
		return 0
	}
	return r.values[i]
}

// Text returns the named feature as the client wrote it. Numbers decoded with
// json.Number keep their literal form ("4.0" stays "4.0"); absent features
// read as "0".
func (r *StudentRecord) Text(name string) string {
	i, ok := featureIndex[name]
	if !ok {
		return "0"
	}
	if r.text[i] != "" {
		return r.text[i]
	}
	return strconv.FormatFloat(r.values[i], 'f', -1, 64)
}

// Has reports whether the named feature was supplied.
func (r *StudentRecord) Has(name string) bool {
	i, ok := featureIndex[name]
	return ok && r.present[i]
}

// Department returns the encoded department.
func (r *StudentRecord) Department() int {
	return int(r.Value(FeatureDepartment))
}

// Features returns every feature keyed by name.
func (r *StudentRecord) Features() map[string]float64 {
	out := make(map[string]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		out[name] = r.values[i]
	}
	return out
}

// StudentIDFrom reads the optional student_id of a raw request object. A
// supplied id is echoed as given; absent and null ids read as "unknown".
func StudentIDFrom(raw map[string]any) string {
	switch id := raw["student_id"].(type) {
	case nil:
		return UnknownStudentID
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

func literal(v any) string {
	switch x := v.(type) {
	case json.Number:
		return x.String()
	case string:
		return strings.TrimSpace(x)
	default:
		return ""
	}
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return 0, nil
		}
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(f) {
			return 0, nil
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
