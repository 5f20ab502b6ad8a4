package id

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewWithPrefix(t *testing.T) {
	Convey("带前缀的ID", t, func() {
		v := NewWithPrefix("thumbnail")

		So(strings.HasPrefix(v, "thumbnail-"), ShouldBeTrue)
		So(HasPrefix(v, "thumbnail"), ShouldBeTrue)
		So(HasPrefix(v, "char"), ShouldBeFalse)
		So(NewWithPrefix("thumbnail"), ShouldNotEqual, v)

		Convey("空前缀退化为UUID", func() {
			So(IsValid(NewWithPrefix("")), ShouldBeTrue)
		})
	})
}
