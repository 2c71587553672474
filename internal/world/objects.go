package world

import (
	"sort"

	"github.com/tatianab/agentia/internal/models"
)

// Object is a stateful thing in the world.
type Object struct {
	ID         string
	Name       string
	Properties map[string]models.Value
	Mechanics  string
	Container  models.Container
}

func (o Object) clone() Object {
	o.Properties = models.CloneProperties(o.Properties)
	return o
}

// View returns the visible part of the object.
func (o Object) View() models.ObjectView {
	name := o.Name
	if name == "" {
		name = o.ID
	}
	return models.ObjectView{ID: o.ID, Name: name, Properties: models.CloneProperties(o.Properties)}
}

// ObjectRegistry owns object instances and their placement. It keeps a
// reverse index from container to objects; an object is listed under
// exactly one container at any time.
//
// The registry does not know which containers exist; World checks that
// before calling Place or Move.
type ObjectRegistry struct {
	objects     map[string]*Object
	byContainer map[models.Container]map[string]struct{}
}

func NewObjectRegistry() *ObjectRegistry {
	return &ObjectRegistry{
		objects:     make(map[string]*Object),
		byContainer: make(map[models.Container]map[string]struct{}),
	}
}

// Place adds a new object to c. Placing an id that already exists fails with
// DuplicateObject; use Move for existing objects.
func (r *ObjectRegistry) Place(obj Object, c models.Container) error {
	if obj.ID == "" {
		return errorf(PreconditionFailed, "object without id")
	}
	if _, ok := r.objects[obj.ID]; ok {
		return errorf(DuplicateObject, "%q already exists", obj.ID)
	}
	if err := c.Validate(); err != nil {
		return errorf(PreconditionFailed, "%v", err)
	}
	for k, v := range obj.Properties {
		if !v.Valid() {
			return errorf(InvalidValue, "property %q of %q", k, obj.ID)
		}
	}
	o := obj.clone()
	o.Container = models.Container{}
	r.objects[o.ID] = &o
	r.attach(&o, c)
	return nil
}

// Remove destroys an object, detaching it from its container.
// Removing a missing object is a PreconditionFailed error, not a panic.
func (r *ObjectRegistry) Remove(id string) error {
	o, ok := r.objects[id]
	if !ok {
		return errorf(PreconditionFailed, "object %q does not exist", id)
	}
	r.detach(o)
	delete(r.objects, id)
	return nil
}

// Move detaches the object from its current container and attaches it to c.
func (r *ObjectRegistry) Move(id string, c models.Container) error {
	o, ok := r.objects[id]
	if !ok {
		return errorf(PreconditionFailed, "object %q does not exist", id)
	}
	if err := c.Validate(); err != nil {
		return errorf(PreconditionFailed, "%v", err)
	}
	r.detach(o)
	r.attach(o, c)
	return nil
}

// Set writes one property.
func (r *ObjectRegistry) Set(id, property string, v models.Value) error {
	o, ok := r.objects[id]
	if !ok {
		return errorf(PreconditionFailed, "object %q does not exist", id)
	}
	if !v.Valid() {
		return errorf(InvalidValue, "property %q of %q", property, id)
	}
	if o.Properties == nil {
		o.Properties = make(map[string]models.Value)
	}
	o.Properties[property] = v
	return nil
}

// Get returns a copy of the object.
func (r *ObjectRegistry) Get(id string) (Object, error) {
	o, ok := r.objects[id]
	if !ok {
		return Object{}, errorf(UnknownObject, "%q", id)
	}
	return o.clone(), nil
}

func (r *ObjectRegistry) Exists(id string) bool {
	_, ok := r.objects[id]
	return ok
}

// ObjectsIn returns the ids held by c, sorted.
func (r *ObjectRegistry) ObjectsIn(c models.Container) []string {
	set := r.byContainer[c]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IDs returns every live object id, sorted.
func (r *ObjectRegistry) IDs() []string {
	out := make([]string, 0, len(r.objects))
	for id := range r.objects {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *ObjectRegistry) Len() int { return len(r.objects) }

func (r *ObjectRegistry) attach(o *Object, c models.Container) {
	set, ok := r.byContainer[c]
	if !ok {
		set = make(map[string]struct{})
		r.byContainer[c] = set
	}
	set[o.ID] = struct{}{}
	o.Container = c
}

func (r *ObjectRegistry) detach(o *Object) {
	if o.Container.IsZero() {
		return
	}
	if set, ok := r.byContainer[o.Container]; ok {
		delete(set, o.ID)
		if len(set) == 0 {
			delete(r.byContainer, o.Container)
		}
	}
	o.Container = models.Container{}
}
