package samplesource

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
)

// Factory opens a Source from a seekable input. It must return
// *DecodeError if the input is not in the format it understands.
type Factory interface {
	NewSource(r io.ReadSeekCloser, name string) (Source, error)
}

type factoryWithPriority struct {
	Priority int
	Factory
}

var (
	factoryRegistry       = map[reflect.Type]factoryWithPriority{}
	factoryRegistryLocker sync.Mutex
)

func RegisterFactory(
	priority int,
	factory Factory,
) {
	t := reflect.ValueOf(factory).Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	factoryRegistryLocker.Lock()
	defer factoryRegistryLocker.Unlock()
	if _, ok := factoryRegistry[t]; ok {
		panic(fmt.Errorf("there is already registered a sample source factory of type %v", t))
	}
	factoryRegistry[t] = factoryWithPriority{
		Priority: priority,
		Factory:  factory,
	}
}

// Factories returns the registered factories, the highest priority first.
func Factories() []Factory {
	factoryRegistryLocker.Lock()
	var factoriesWithPriorities []factoryWithPriority
	for _, factory := range factoryRegistry {
		factoriesWithPriorities = append(factoriesWithPriorities, factory)
	}
	factoryRegistryLocker.Unlock()

	sort.SliceStable(factoriesWithPriorities, func(i, j int) bool {
		if factoriesWithPriorities[i].Priority != factoriesWithPriorities[j].Priority {
			return factoriesWithPriorities[i].Priority > factoriesWithPriorities[j].Priority
		}
		return reflect.TypeOf(factoriesWithPriorities[i].Factory).String() < reflect.TypeOf(factoriesWithPriorities[j].Factory).String()
	})

	var factories []Factory
	for _, factory := range factoriesWithPriorities {
		factories = append(factories, factory.Factory)
	}
	return factories
}

// OpenAuto opens the file at path with the first registered factory that
// is able to decode it.
func OpenAuto(
	ctx context.Context,
	path string,
) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	src, err := NewSourceAuto(ctx, f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// NewSourceAuto tries every registered factory on r (rewinding it between
// the attempts) and returns the first Source that could be opened.
func NewSourceAuto(
	ctx context.Context,
	r io.ReadSeekCloser,
	name string,
) (Source, error) {
	var mErr *multierror.Error
	for _, factory := range Factories() {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("unable to rewind '%s': %w", name, err)
		}
		src, err := factory.NewSource(r, name)
		logger.Debugf(ctx, "opening '%s' with %T result is %v", name, factory, err)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("%T: %w", factory, err))
			continue
		}
		return src, nil
	}
	if mErr == nil {
		return nil, &DecodeError{Input: name, Err: fmt.Errorf("no decoders are registered")}
	}
	return nil, &DecodeError{Input: name, Err: mErr.ErrorOrNil()}
}
