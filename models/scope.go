package models

import "fmt"

// ScopeKind names which dimensions a Scope restricts.
type ScopeKind int

const (
	ScopeNone ScopeKind = iota
	ScopeTeacher
	ScopeClass
	ScopeBoth
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeTeacher:
		return "teacher"
	case ScopeClass:
		return "class"
	case ScopeBoth:
		return "teacher+class"
	default:
		return "none"
	}
}

// Scope is the dimension against which conflicts are checked: a teacher, a class, or both.
// Build it with TeacherScope, ClassScope or BothScope; the zero value is the empty scope.
type Scope struct {
	TeacherID string `bson:"teacherId,omitempty" json:"teacherId,omitempty"`
	ClassID   string `bson:"classId,omitempty" json:"classId,omitempty"`
}

func TeacherScope(teacherID string) Scope { return Scope{TeacherID: teacherID} }

func ClassScope(classID string) Scope { return Scope{ClassID: classID} }

func BothScope(teacherID, classID string) Scope {
	return Scope{TeacherID: teacherID, ClassID: classID}
}

// Kind reports which variant the scope holds.
func (s Scope) Kind() ScopeKind {
	switch {
	case s.TeacherID != "" && s.ClassID != "":
		return ScopeBoth
	case s.TeacherID != "":
		return ScopeTeacher
	case s.ClassID != "":
		return ScopeClass
	default:
		return ScopeNone
	}
}

// IsEmpty reports whether the scope restricts nothing.
func (s Scope) IsEmpty() bool { return s.Kind() == ScopeNone }

// Matches reports whether a booking's scope shares a teacher or a class with s.
func (s Scope) Matches(other Scope) bool {
	if s.TeacherID != "" && s.TeacherID == other.TeacherID {
		return true
	}
	return s.ClassID != "" && s.ClassID == other.ClassID
}

// LockKeys returns one key per populated dimension, in a fixed order.
func (s Scope) LockKeys() []string {
	var keys []string
	if s.TeacherID != "" {
		keys = append(keys, "teacher:"+s.TeacherID)
	}
	if s.ClassID != "" {
		keys = append(keys, "class:"+s.ClassID)
	}
	return keys
}

func (s Scope) String() string {
	switch s.Kind() {
	case ScopeTeacher:
		return fmt.Sprintf("teacher %s", s.TeacherID)
	case ScopeClass:
		return fmt.Sprintf("class %s", s.ClassID)
	case ScopeBoth:
		return fmt.Sprintf("teacher %s / class %s", s.TeacherID, s.ClassID)
	default:
		return "no scope"
	}
}
