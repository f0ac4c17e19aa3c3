package dailymood_test

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/dailymood"
	"github.com/xraph/dailymood/store/memory"
)

// Example mirrors the package documentation quick start.
func Example() {
	ctx := context.Background()

	owner := dailymood.MustParseAddress("0x00000000000000000000000000000000000000aa")
	alice := dailymood.MustParseAddress("0x00000000000000000000000000000000000a11ce")

	l := dailymood.New(memory.New(), dailymood.WithLogger(slog.New(slog.DiscardHandler)))
	if err := l.Start(ctx); err != nil {
		panic(err)
	}
	defer l.Stop()

	c, err := l.Deploy(ctx, owner, []dailymood.Address{dailymood.ZeroAddress})
	if err != nil {
		panic(err)
	}

	if _, err := c.PushMood(ctx, alice, "happy"); err != nil {
		panic(err)
	}
	if _, err := c.PushMood(ctx, alice, "tired"); err != nil {
		panic(err)
	}
	if _, err := c.RemoveMoodByIndex(ctx, owner, alice, 0); err != nil {
		panic(err)
	}

	n, _ := c.MoodsLength(ctx, alice)
	first, _ := c.MoodByIndex(ctx, alice, 0)
	fmt.Println(n, first.Text)

	_, err = c.MoodByIndex(ctx, alice, 1)
	fmt.Println(dailymood.IsOutOfBounds(err))

	err = c.AddAllowed(ctx, alice, alice)
	fmt.Println(dailymood.IsUnauthorized(err))

	// Output:
	// 1 tired
	// true
	// true
}
