// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package group

// Query answers the member queries from src. handled is false for any other query.
func Query(src Source, query any) (res any, handled bool, err error) {
	switch q := query.(type) {
	case TotalWeightQuery:
		res, err = src.TotalWeight()
	case MemberQuery:
		if q.AtHeight != nil {
			res, err = src.WasMemberAt(q.Addr, *q.AtHeight)
		} else {
			res, err = src.IsMember(q.Addr)
		}
	case ListMembersQuery:
		res, err = src.ListMembers(q.StartAfter, q.Limit)
	case ListMembersByWeightQuery:
		res, err = src.ListMembersByWeight(q.StartAfter, q.Limit)
	default:
		return nil, false, nil
	}
	return res, true, err
}
