package state

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNamespace(t *testing.T) {
	Convey("Given two sessions over one memory store", t, func() {
		ctx := context.Background()
		mem := NewMemory()
		a := Namespace(mem, "session-a")
		b := Namespace(mem, "session-b")

		So(a.Set(ctx, KeyName, "Jett"), ShouldBeNil)

		Convey("Then keys do not leak between sessions", func() {
			v, ok, err := a.Get(ctx, KeyName)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "Jett")

			_, ok, _ = b.Get(ctx, KeyName)
			So(ok, ShouldBeFalse)
		})

		Convey("Then the last write wins and delete removes", func() {
			So(a.Set(ctx, KeyName, "Sova"), ShouldBeNil)
			v, _, _ := a.Get(ctx, KeyName)
			So(v, ShouldEqual, "Sova")

			So(a.Delete(ctx, KeyName), ShouldBeNil)
			_, ok, _ := a.Get(ctx, KeyName)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestNewSessionID(t *testing.T) {
	Convey("Given generated session ids", t, func() {
		a, errA := NewSessionID()
		b, errB := NewSessionID()

		So(errA, ShouldBeNil)
		So(errB, ShouldBeNil)
		So(a, ShouldHaveLength, 21)
		So(a, ShouldNotEqual, b)
	})
}
