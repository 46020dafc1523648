package simulation

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseCSVBatch(t *testing.T) {
	Convey("Given a well-formed train-batch CSV", t, func() {
		input := "train_id,train_code,train_type_id,current_section_id,num_wagons,desired_stop_id\n" +
			"1,EXP101,2,1,8,PLATFORM_A\n" +
			"2,LOC202,1,3,4,\n"

		Convey("It decodes every row", func() {
			rows, err := ParseCSVBatch(strings.NewReader(input))
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			So(rows[0], ShouldResemble, CSVSpawnRow{
				TrainID: 1, TrainCode: "EXP101", TrainTypeID: 2,
				EntrySection: 1, NumWagons: 8, DesiredStop: "PLATFORM_A",
			})
			So(rows[1].DesiredStop, ShouldEqual, StopID(""))
		})
	})

	Convey("Given a CSV with the wrong header", t, func() {
		input := "id,code,type,section,wagons,stop\n1,EXP101,2,1,8,\n"

		Convey("ParseCSVBatch rejects it", func() {
			_, err := ParseCSVBatch(strings.NewReader(input))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a row with a non-numeric column", t, func() {
		input := "train_id,train_code,train_type_id,current_section_id,num_wagons,desired_stop_id\n" +
			"abc,EXP101,2,1,8,\n"

		Convey("ParseCSVBatch reports the row error", func() {
			_, err := ParseCSVBatch(strings.NewReader(input))
			So(err, ShouldNotBeNil)
		})
	})
}
