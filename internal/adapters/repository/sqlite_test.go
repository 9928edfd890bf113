package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSQLiteStore(t *testing.T) {
	Convey("Given a sqlite store on a temp file", t, func() {
		storeContract(func() repository.Store {
			path := filepath.Join(t.TempDir(), "matchday.db")
			s, err := repository.OpenSQLite(context.Background(), path, repository.WithLogger(logger.Nop()))
			So(err, ShouldBeNil)
			return s
		})
	})
}

func TestSQLiteReopen(t *testing.T) {
	Convey("Data survives closing and reopening the file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "persist.db")

		s, err := repository.OpenSQLite(ctx, path, repository.WithLogger(logger.Nop()))
		So(err, ShouldBeNil)
		So(s.UpsertClub(ctx, model.Club{OwnerID: "u1", Name: "Alpha"}), ShouldBeNil)
		_, err = s.AdjustManagerSkill(ctx, "u1", true)
		So(err, ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		s, err = repository.OpenSQLite(ctx, path, repository.WithLogger(logger.Nop()))
		So(err, ShouldBeNil)
		defer s.Close()
		skill, _ := s.ManagerSkill(ctx, "u1")
		So(skill, ShouldEqual, 51)
		club, ok, _ := s.Club(ctx, "u1")
		So(ok, ShouldBeTrue)
		So(club.Name, ShouldEqual, "Alpha")
	})
}
