package app

import "hotel_storefront/internal/domain"

// GroupRooms picks, per room type, the first available room in input order.
// Types with no available room are left out.
func GroupRooms(rooms []domain.Room) domain.RoomTypeGroup {
	g := domain.NewRoomTypeGroup()
	for _, r := range rooms {
		if !r.IsAvailable {
			continue
		}
		g.Put(r.TypeName(), r)
	}
	return g
}
