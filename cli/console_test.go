package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/memstore"
	"github.com/supakorn-kn/propadmin/objects"
	"github.com/supakorn-kn/propadmin/query"
)

type ConsoleTestSuite struct {
	suite.Suite
	store   *memstore.Store
	client  *query.Client
	out     *bytes.Buffer
	console *console
}

func (s *ConsoleTestSuite) SetupTest() {

	s.store = memstore.New()

	property, err := s.store.Insert(objects.PropertiesCollection, collection.Record{"name": "Riverside", "address": "1 River Rd", "city": "Bangkok"})
	s.Require().NoError(err)

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 1; i <= 12; i++ {
		_, err := s.store.Insert(objects.UnitsCollection, collection.Record{
			"id":          fmt.Sprintf("unit_%02d", i),
			"name":        fmt.Sprintf("Unit %02d", i),
			"property_id": property[collection.IDField],
			"created_at":  base.Add(time.Duration(i) * time.Minute),
		})
		s.Require().NoError(err)
	}

	s.client = query.NewClient(s.store)
	s.out = &bytes.Buffer{}
	s.console = newConsole(context.Background(), s.out, s.client, s.store, 5)
	s.Require().NoError(s.console.use(objects.UnitsCollection))
	s.Require().NoError(s.console.wait())
}

func (s *ConsoleTestSuite) TearDownTest() {
	s.console.close()
	s.client.Close()
}

func (s *ConsoleTestSuite) result() query.Result {
	return s.console.handle.Result()
}

func (s *ConsoleTestSuite) TestPaging() {

	s.Run("Should move between pages", func() {

		s.Require().False(s.console.exec(".next"))
		s.Require().Equal(2, s.result().Page)
		s.Require().Equal("unit_07", s.result().Rows[0][collection.IDField])
		s.Require().Contains(s.out.String(), "page 2/3 (12 items)")

		s.Require().False(s.console.exec(".prev"))
		s.Require().Equal(1, s.result().Page)
	})

	s.Run("Should stay on first page", func() {

		s.out.Reset()
		s.console.exec(".prev")
		s.Require().Equal("Already on the first page\n", s.out.String())
	})

	s.Run("Should jump to page and stop at last", func() {

		s.console.exec(".page 3")
		s.Require().Equal(3, s.result().Page)
		s.Require().Len(s.result().Rows, 2)

		s.out.Reset()
		s.console.exec(".next")
		s.Require().Equal("Already on the last page\n", s.out.String())
	})

	s.Run("Should reset page when size changes", func() {

		s.console.exec(".size 4")
		s.Require().Equal(1, s.result().Page)
		s.Require().Equal(4, s.result().PageSize)
		s.Require().Len(s.result().Rows, 4)
	})

	s.Run("Should report invalid numbers", func() {

		s.out.Reset()
		s.console.exec(".page two")
		s.Require().Contains(s.out.String(), `Error: expected a number, got "two"`)

		s.out.Reset()
		s.console.exec(".page 0")
		s.Require().Contains(s.out.String(), "Error: ")

		s.out.Reset()
		s.console.exec(fmt.Sprintf(".size %d", collection.MaxPageSize+1))
		s.Require().Contains(s.out.String(), "Error: ")
		s.Require().Equal(4, s.result().PageSize)
	})
}

func (s *ConsoleTestSuite) TestSearch() {

	s.Run("Should not search before submit", func() {

		s.console.exec(".page 2")
		s.console.exec(".search Unit 1")

		s.Require().Equal("", s.result().SearchTerm)
		s.Require().Equal(2, s.result().Page)
		s.Require().Equal("Unit 1", s.console.handle.PendingSearchTerm())
	})

	s.Run("Should search from first page on submit", func() {

		s.console.exec(".submit")

		res := s.result()
		s.Require().Equal("Unit 1", res.SearchTerm)
		s.Require().Equal(1, res.Page)
		s.Require().Equal(3, res.Count)
	})

	s.Run("Should show no results message", func() {

		s.console.exec(".search nothing")
		s.out.Reset()
		s.console.exec(".submit")

		s.Require().Contains(s.out.String(), "No results found")
	})

	s.Run("Should clear search", func() {

		s.console.exec(".clear")

		s.Require().Equal("", s.result().SearchTerm)
		s.Require().Equal("", s.console.handle.PendingSearchTerm())
		s.Require().Equal(12, s.result().Count)
	})
}

func (s *ConsoleTestSuite) TestDelete() {

	s.Run("Should refresh after delete", func() {

		s.console.exec(".delete unit_12")

		res := s.result()
		s.Require().Equal(11, res.Count)
		s.Require().Equal("unit_11", res.Rows[0][collection.IDField])
		s.Require().Contains(s.out.String(), "Deleted unit_12")
	})

	s.Run("Should go back when last page disappears", func() {

		s.console.exec(".page 3")
		s.Require().Len(s.result().Rows, 1)

		s.console.exec(".delete unit_01")

		res := s.result()
		s.Require().Equal(10, res.Count)
		s.Require().Equal(2, res.Page)
		s.Require().Len(res.Rows, 5)
	})

	s.Run("Should report missing record", func() {

		s.out.Reset()
		s.console.exec(".delete unit_99")
		s.Require().Contains(s.out.String(), "Error: Item with ID unit_99 is not exist")
	})

	s.Run("Should require an id", func() {

		s.out.Reset()
		s.console.exec(".delete")
		s.Require().Equal("Error: usage: .delete <id>\n", s.out.String())
	})
}

func (s *ConsoleTestSuite) TestCommands() {

	s.Run("Should switch collection", func() {

		s.Require().False(s.console.exec(".use properties"))
		s.Require().Equal(objects.PropertiesCollection, s.console.def.Name)
		s.Require().Equal(1, s.result().Count)
		s.Require().Equal("propadmin:properties> ", s.console.prompt())
	})

	s.Run("Should keep collection on unknown name", func() {

		s.out.Reset()
		s.console.exec(".use tenants")
		s.Require().Contains(s.out.String(), "Error: ")
		s.Require().Equal(objects.PropertiesCollection, s.console.def.Name)
	})

	s.Run("Should print help and reject unknown commands", func() {

		s.out.Reset()
		s.console.exec(".help")
		s.Require().Contains(s.out.String(), ".submit")

		s.out.Reset()
		s.console.exec(".bogus")
		s.Require().Equal("Unknown command: .bogus (type .help for commands)\n", s.out.String())
	})

	s.Run("Should ignore blank lines and quit", func() {

		s.Require().False(s.console.exec("   "))
		s.Require().True(s.console.exec(".quit"))
		s.Require().True(s.console.exec(".exit"))
	})
}

func TestConsoleTestSuite(t *testing.T) {
	suite.Run(t, new(ConsoleTestSuite))
}
