package service

import "github.com/Shivanand-hulikatti/event-enrollment/internal/model"

// IsEligible reports whether student may register for event. Open events
// admit anyone; restricted events require at least one shared course.
func IsEligible(student model.Student, event model.Event) bool {
	if event.IsOpen() {
		return true
	}
	required := make(map[int64]struct{}, len(event.RequiredCourseIDs))
	for _, id := range event.RequiredCourseIDs {
		required[id] = struct{}{}
	}
	for _, id := range student.CourseIDs {
		if _, ok := required[id]; ok {
			return true
		}
	}
	return false
}
