package indigo_test

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/agentstation/indigo"
	"github.com/agentstation/indigo/typemap"
)

type Profile struct {
	Name   string
	Extras typemap.TypeMap
}

type Visits int

type Visited struct{}

type Renamed struct {
	Name string
}

// ExampleStore wires a direct field and an extension field into one store.
func ExampleStore() {
	ctx := context.Background()

	store := indigo.New(Profile{Name: "Alice", Extras: *typemap.MustNew(Visits(0))},
		indigo.WithField(indigo.Direct(func(p *Profile) *string { return &p.Name })),
		indigo.WithField(indigo.Extension[Profile, Visits](func(p *Profile) *typemap.TypeMap {
			return &p.Extras
		})),
	)

	indigo.AddReducer(store, func(v *Visits, _ Visited) {
		*v++
	})
	indigo.AddReducer(store, func(name *string, a Renamed) {
		*name = a.Name
	})

	// Listeners may run on any goroutine the caller dispatches from, so
	// shared counters carry their own lock.
	var mu sync.Mutex
	changes := 0
	indigo.AddListener(store, func(Visits) {
		mu.Lock()
		defer mu.Unlock()
		changes++
	})

	store.Dispatch(ctx, Visited{})
	store.Dispatch(ctx, Visited{})
	store.Dispatch(ctx, Renamed{Name: "Bob"})

	visits, err := indigo.Get[Visits](store)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(store.State().Name, visits, changes)
	// Output: Bob 2 2
}

// ExampleGetMut shows that direct writes skip listeners.
func ExampleGetMut() {
	store := indigo.New(Profile{Extras: *typemap.MustNew(Visits(0))},
		indigo.WithField(indigo.Extension[Profile, Visits](func(p *Profile) *typemap.TypeMap {
			return &p.Extras
		})),
	)

	indigo.AddListener(store, func(v Visits) {
		fmt.Println("listener saw", v)
	})

	visits, err := indigo.GetMut[Visits](store)
	if err != nil {
		log.Fatal(err)
	}
	*visits = 41

	v, _ := indigo.Get[Visits](store)
	fmt.Println(v)
	// Output: 41
}
