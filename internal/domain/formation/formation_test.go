package formation_test

import (
	"testing"

	"github.com/okian/matchday/internal/domain/formation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSlots(t *testing.T) {
	Convey("Given the supported formations", t, func() {
		names := formation.Names()
		So(len(names), ShouldEqual, 8)

		Convey("Every formation has eleven slots and one goalkeeper", func() {
			for _, n := range names {
				slots := formation.Slots(n)
				So(len(slots), ShouldEqual, 11)
				keepers := 0
				for _, sl := range slots {
					if sl.Position == "Goleiro" {
						keepers++
					}
					So(sl.X, ShouldBeBetweenOrEqual, 0, 100)
					So(sl.Y, ShouldBeBetweenOrEqual, 0, 100)
				}
				So(keepers, ShouldEqual, 1)
			}
		})

		Convey("Unknown names fall back to 4-4-2", func() {
			So(formation.Known("2-3-5"), ShouldBeFalse)
			So(formation.Slots("2-3-5"), ShouldResemble, formation.Slots(formation.Default))
		})

		Convey("Returned slots are copies", func() {
			a := formation.Slots("4-3-3")
			a[0].Position = "changed"
			So(formation.Slots("4-3-3")[0].Position, ShouldEqual, "Goleiro")
		})
	})
}
